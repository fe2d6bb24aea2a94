package store

import "fmt"

// CreateConvertLog 创建转换日志，返回 convert_log_id
func (s *Store) CreateConvertLog(filename string, fileSize int64, templateID string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO convert_logs (filename, file_size, template_id, status)
		VALUES (?, ?, ?, 'processing')
	`, filename, fileSize, templateID)
	if err != nil {
		return 0, fmt.Errorf("failed to create convert log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get convert log id: %w", err)
	}
	return id, nil
}

// UpdateConvertLog 完成转换日志更新
func (s *Store) UpdateConvertLog(id int64, format string, rowCount, errorRows int, status, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE convert_logs SET
			format = ?,
			row_count = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, format, rowCount, errorRows, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update convert log: %w", err)
	}
	return nil
}
