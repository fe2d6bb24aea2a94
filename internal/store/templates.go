package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orderbridge/internal/model"
)

// ErrTemplateNotFound 模板不存在
var ErrTemplateNotFound = errors.New("template not found")

// SaveTemplate 保存模板，内容重复时返回已有模板的 ID
//
// 去重按内容哈希而不是进程内"已保存"集合：多实例部署下
// 进程内集合各自为政，重启后还会丢，哈希落库才是唯一事实。
func (s *Store) SaveTemplate(t *model.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	hash := t.ContentHash()
	var existingID string
	err := s.db.QueryRow(`SELECT id FROM templates WHERE content_hash = ?`, hash).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to check template hash: %w", err)
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	fields, rules, fixed, err := marshalTemplateColumns(t)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(`
		INSERT INTO templates (id, name, target_fields, rules, fixed_fields, content_hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, fields, rules, fixed, hash)
	if err != nil {
		return "", fmt.Errorf("failed to save template: %w", err)
	}
	return t.ID, nil
}

// UpdateTemplate 更新模板
func (s *Store) UpdateTemplate(t *model.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	fields, rules, fixed, err := marshalTemplateColumns(t)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE templates SET
			name = ?,
			target_fields = ?,
			rules = ?,
			fixed_fields = ?,
			content_hash = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, t.Name, fields, rules, fixed, t.ContentHash(), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// GetTemplate 按 ID 读取模板
func (s *Store) GetTemplate(id string) (*model.Template, error) {
	row := s.db.QueryRow(`
		SELECT id, name, target_fields, rules, fixed_fields, created_at, updated_at
		FROM templates WHERE id = ?
	`, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	return t, err
}

// ListTemplates 按更新时间倒序列出全部模板
func (s *Store) ListTemplates() ([]*model.Template, error) {
	rows, err := s.db.Query(`
		SELECT id, name, target_fields, rules, fixed_fields, created_at, updated_at
		FROM templates ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// DeleteTemplate 删除模板
func (s *Store) DeleteTemplate(id string) error {
	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.Template, error) {
	var t model.Template
	var fields, rules, fixed string
	var createdAt, updatedAt time.Time
	if err := row.Scan(&t.ID, &t.Name, &fields, &rules, &fixed, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &t.OrderedTargetFields); err != nil {
		return nil, fmt.Errorf("failed to decode target fields: %w", err)
	}
	if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	if err := json.Unmarshal([]byte(fixed), &t.FixedFields); err != nil {
		return nil, fmt.Errorf("failed to decode fixed fields: %w", err)
	}
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return &t, nil
}

func marshalTemplateColumns(t *model.Template) (fields, rules, fixed string, err error) {
	fieldsJSON, err := json.Marshal(t.OrderedTargetFields)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode target fields: %w", err)
	}
	if t.Rules == nil {
		t.Rules = map[string]model.MappingRule{}
	}
	rulesJSON, err := json.Marshal(t.Rules)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode rules: %w", err)
	}
	if t.FixedFields == nil {
		t.FixedFields = map[string]string{}
	}
	fixedJSON, err := json.Marshal(t.FixedFields)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode fixed fields: %w", err)
	}
	return string(fieldsJSON), string(rulesJSON), string(fixedJSON), nil
}
