package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"imobi-crm/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is a Store backed by a gorm connection (sqlite or postgres).
type Gorm struct {
	db *gorm.DB
}

var _ Store = (*Gorm)(nil)

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Templates ---

func (g *Gorm) SaveTemplate(ctx context.Context, t models.Template) (models.Template, error) {
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "content", "updated_at"}),
	}).Create(&t).Error
	if err != nil {
		return models.Template{}, fmt.Errorf("save template %s: %w", t.ID, err)
	}
	return g.GetTemplateByID(ctx, t.ID)
}

func (g *Gorm) GetTemplateByID(ctx context.Context, id string) (models.Template, error) {
	var t models.Template
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return models.Template{}, notFound(err)
	}
	return t, nil
}

func (g *Gorm) ListTemplates(ctx context.Context) ([]models.Template, error) {
	templates := []models.Template{}
	if err := g.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (g *Gorm) DeleteTemplate(ctx context.Context, id string) error {
	return affected(g.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Template{}))
}

// --- Automation rules ---

func (g *Gorm) SaveRule(ctx context.Context, r models.AutomationRule) (models.AutomationRule, error) {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.AutomationRule
		err := tx.Where("id = ?", r.ID).First(&existing).Error
		switch {
		case err == nil:
			return tx.Model(&models.AutomationRule{}).Where("id = ?", r.ID).Updates(map[string]interface{}{
				"stage":       r.Stage,
				"template_id": r.TemplateID,
				"enabled":     r.Enabled,
				"updated_at":  time.Now(),
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxSeq int64
			if err := tx.Model(&models.AutomationRule{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
				return err
			}
			r.Seq = maxSeq + 1
			return tx.Create(&r).Error
		default:
			return err
		}
	})
	if err != nil {
		return models.AutomationRule{}, fmt.Errorf("save rule %s: %w", r.ID, err)
	}
	return g.GetRule(ctx, r.ID)
}

func (g *Gorm) GetRule(ctx context.Context, id string) (models.AutomationRule, error) {
	var r models.AutomationRule
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return models.AutomationRule{}, notFound(err)
	}
	return r, nil
}

func (g *Gorm) ListRules(ctx context.Context) ([]models.AutomationRule, error) {
	rules := []models.AutomationRule{}
	if err := g.db.WithContext(ctx).Order("seq ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (g *Gorm) RulesForStage(ctx context.Context, stage string) ([]models.AutomationRule, error) {
	rules := []models.AutomationRule{}
	if err := g.db.WithContext(ctx).Where("stage = ?", stage).Order("seq ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (g *Gorm) SetRuleEnabled(ctx context.Context, id string, enabled bool) error {
	return affected(g.db.WithContext(ctx).Model(&models.AutomationRule{}).Where("id = ?", id).Updates(map[string]interface{}{
		"enabled":    enabled,
		"updated_at": time.Now(),
	}))
}

func (g *Gorm) DeleteRule(ctx context.Context, id string) error {
	return affected(g.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AutomationRule{}))
}

// --- Conversation log ---

func (g *Gorm) Append(ctx context.Context, leadID string, msg models.ChatMessage) (models.ChatMessage, error) {
	msg.ID = 0
	msg.LeadID = leadID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if err := g.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return models.ChatMessage{}, fmt.Errorf("append message for %s: %w", leadID, err)
	}
	return msg, nil
}

func (g *Gorm) History(ctx context.Context, leadID string) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	err := g.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// --- Leads ---

func (g *Gorm) SaveLead(ctx context.Context, l models.Lead) (models.Lead, error) {
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "email", "stage", "updated_at"}),
	}).Create(&l).Error
	if err != nil {
		return models.Lead{}, fmt.Errorf("save lead %s: %w", l.ID, err)
	}
	return g.GetLead(ctx, l.ID)
}

func (g *Gorm) GetLead(ctx context.Context, id string) (models.Lead, error) {
	var l models.Lead
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return models.Lead{}, notFound(err)
	}
	return l, nil
}

func (g *Gorm) ListLeads(ctx context.Context) ([]models.Lead, error) {
	leads := []models.Lead{}
	if err := g.db.WithContext(ctx).Order("created_at DESC").Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (g *Gorm) UpdateStage(ctx context.Context, id, stage string) error {
	return affected(g.db.WithContext(ctx).Model(&models.Lead{}).Where("id = ?", id).Updates(map[string]interface{}{
		"stage":      stage,
		"updated_at": time.Now(),
	}))
}

func (g *Gorm) DeleteLead(ctx context.Context, id string) error {
	return affected(g.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Lead{}))
}

// --- Empreendimentos ---

func (g *Gorm) SaveEmpreendimento(ctx context.Context, e models.Empreendimento) (models.Empreendimento, error) {
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "neighborhood", "city", "typology", "price_from", "units_available", "description", "updated_at",
		}),
	}).Create(&e).Error
	if err != nil {
		return models.Empreendimento{}, fmt.Errorf("save empreendimento %s: %w", e.ID, err)
	}
	var saved models.Empreendimento
	if err := g.db.WithContext(ctx).Where("id = ?", e.ID).First(&saved).Error; err != nil {
		return models.Empreendimento{}, notFound(err)
	}
	return saved, nil
}

func (g *Gorm) FindEmpreendimentoByName(ctx context.Context, name string) (models.Empreendimento, error) {
	var e models.Empreendimento
	if err := g.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&e).Error; err != nil {
		return models.Empreendimento{}, notFound(err)
	}
	return e, nil
}

func (g *Gorm) ListEmpreendimentos(ctx context.Context) ([]models.Empreendimento, error) {
	list := []models.Empreendimento{}
	if err := g.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// --- Automation logs ---

func (g *Gorm) RecordAutomation(ctx context.Context, entry models.AutomationLog) error {
	entry.ID = 0
	return g.db.WithContext(ctx).Create(&entry).Error
}

func (g *Gorm) ListAutomationLogs(ctx context.Context, limit int) ([]models.AutomationLog, error) {
	logs := []models.AutomationLog{}
	query := g.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (g *Gorm) AutomationStats(ctx context.Context) (models.AutomationStats, error) {
	var stats models.AutomationStats
	db := g.db.WithContext(ctx)

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.AutomationRule{}), &stats.TotalRules},
		{db.Model(&models.AutomationRule{}).Where("enabled = ?", true), &stats.ActiveRules},
		{db.Model(&models.AutomationLog{}), &stats.TotalExecutions},
		{db.Model(&models.AutomationLog{}).Where("status = ?", models.AutomationSent), &stats.Sent},
		{db.Model(&models.AutomationLog{}).Where("status = ?", models.AutomationSkipped), &stats.Skipped},
		{db.Model(&models.AutomationLog{}).Where("status = ?", models.AutomationFailed), &stats.Failed},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return models.AutomationStats{}, err
		}
	}
	return stats, nil
}
