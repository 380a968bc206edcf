package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB column plumbing for sqlx. Nil pointers and empty slices round-trip
// as SQL NULL.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

func jsonScan(src, dst any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(data, dst)
	case string:
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("scan jsonb: unsupported source %T", src)
	}
}

func (s TranscriptSegments) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return jsonValue(s)
}

func (s *TranscriptSegments) Scan(src any) error { return jsonScan(src, s) }

func (s Segments) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return jsonValue(s)
}

func (s *Segments) Scan(src any) error { return jsonScan(src, s) }

func (p *EditPlan) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return jsonValue(p)
}

func (p *EditPlan) Scan(src any) error { return jsonScan(src, p) }

func (m *VideoMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return jsonValue(m)
}

func (m *VideoMetadata) Scan(src any) error { return jsonScan(src, m) }

func (q *Quiz) Value() (driver.Value, error) {
	if q == nil {
		return nil, nil
	}
	return jsonValue(q)
}

func (q *Quiz) Scan(src any) error { return jsonScan(src, q) }
