package domain

import "time"

type AgentCounts struct {
	Total     int `json:"total"`
	Public    int `json:"public"`
	Published int `json:"published"`
	Pending   int `json:"pending"`
	Draft     int `json:"draft"`
	Featured  int `json:"featured"`
}

type AdminStats struct {
	Users       int          `json:"users"`
	UsersByRole map[Role]int `json:"users_by_role"`
	Agents      AgentCounts  `json:"agents"`
	GeneratedAt time.Time    `json:"generated_at"`
}

type AdminOverview struct {
	Stats        AdminStats `json:"stats"`
	RecentAgents []*Agent   `json:"recent_agents"`
	RecentUsers  []*User    `json:"recent_users"`
}
