package models

import (
	"time"
)

// Template is a reusable message body with {name} placeholders
type Template struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

// AutomationRule binds a pipeline stage to a template sent on stage entry.
// TemplateID may point at a template that does not exist.
type AutomationRule struct {
	ID         string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Stage      string    `gorm:"type:varchar(100);index;not null" json:"stage"`
	TemplateID string    `gorm:"type:varchar(255)" json:"template_id"`
	Enabled    bool      `json:"enabled"`
	Seq        int64     `gorm:"index" json:"seq"` // insertion order, kept on overwrite
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AutomationRule) TableName() string {
	return "automation_rules"
}

const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// ChatMessage is one entry of a lead's conversation log
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LeadID    string    `gorm:"type:varchar(255);index;not null" json:"lead_id"`
	From      string    `gorm:"column:sender;type:varchar(255)" json:"from"`
	To        string    `gorm:"column:recipient;type:varchar(255)" json:"to"`
	Text      string    `gorm:"type:text" json:"text"`
	Direction string    `gorm:"type:varchar(20)" json:"direction"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Lead is a prospective client tracked through the pipeline
type Lead struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Phone     string    `gorm:"type:varchar(50);index" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	Stage     string    `gorm:"type:varchar(100);index" json:"stage"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

// Empreendimento is a real-estate development offered to leads
type Empreendimento struct {
	ID             string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Name           string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Neighborhood   string    `gorm:"type:varchar(255)" json:"neighborhood"`
	City           string    `gorm:"type:varchar(255)" json:"city"`
	Typology       string    `gorm:"type:varchar(255)" json:"typology"`
	PriceFrom      float64   `json:"price_from"`
	UnitsAvailable int       `json:"units_available"`
	Description    string    `gorm:"type:text" json:"description"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Empreendimento) TableName() string {
	return "empreendimentos"
}

const (
	AutomationSent    = "sent"
	AutomationSkipped = "skipped"
	AutomationFailed  = "failed"
)

// AutomationLog represents a log entry for one automation rule evaluation
type AutomationLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RuleID       string    `gorm:"type:varchar(255);index" json:"rule_id"`
	LeadID       string    `gorm:"type:varchar(255)" json:"lead_id"`
	Stage        string    `gorm:"type:varchar(100)" json:"stage"`
	TemplateID   string    `gorm:"type:varchar(255)" json:"template_id"`
	Status       string    `gorm:"type:varchar(20)" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AutomationLog) TableName() string {
	return "automation_logs"
}

// AutomationStats summarises rules and their execution history
type AutomationStats struct {
	TotalRules      int64 `json:"total_rules"`
	ActiveRules     int64 `json:"active_rules"`
	TotalExecutions int64 `json:"total_executions"`
	Sent            int64 `json:"sent"`
	Skipped         int64 `json:"skipped"`
	Failed          int64 `json:"failed"`
}
