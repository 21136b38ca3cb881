package storage

import "time"

// AppendAdminLog records a privileged action. Audit appends are best-effort:
// a failure is logged and swallowed so it never rolls back the primary
// mutation it describes.
func (s *Storage) AppendAdminLog(adminID int64, action, details string) {
	_, err := s.db.Exec(
		`INSERT INTO admin_logs (admin_id, action, details, created_at) VALUES (?, ?, ?, ?)`,
		adminID, action, details, time.Now().Unix(),
	)
	if err != nil {
		s.log.Error("append admin log", "admin_id", adminID, "action", action, "error", err)
	}
}

// AdminLogs returns the most recent privileged-action entries
func (s *Storage) AdminLogs(limit int) ([]AdminLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT log_id, admin_id, action, details, created_at
		 FROM admin_logs ORDER BY log_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var entries []AdminLogEntry
	for rows.Next() {
		var e AdminLogEntry
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.Details, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
