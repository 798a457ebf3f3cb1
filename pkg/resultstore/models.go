// Package resultstore persists the summary of a completed numbering run.
package resultstore

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONField stores an arbitrary JSON document in a single column.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// RunRecord represents the numbering_run table: one row per rank's share
// of a completed Number() run.
type RunRecord struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID            string    `gorm:"column:run_id;type:varchar(64);index"`
	Rank             int       `gorm:"column:rank"`
	NumRanks         int       `gorm:"column:num_ranks"`
	NumLocalElements int       `gorm:"column:num_local_elements"`
	GlobalNodeCount  int       `gorm:"column:global_node_count"`
	OwnedCount       int       `gorm:"column:owned_count"`
	SharedCount      int       `gorm:"column:shared_count"`
	GlobalOffset     int       `gorm:"column:global_offset"`
	ConfigHistogram  JSONField `gorm:"column:config_histogram;type:json"`
	PhaseTimings     JSONField `gorm:"column:phase_timings;type:json"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for RunRecord.
func (RunRecord) TableName() string {
	return "numbering_run"
}

// RunSummary is the domain view of a RunRecord, decoupled from the storage
// encoding of PhaseTimings and ConfigHistogram. OwnedCount, SharedCount and
// GlobalOffset are the fields a numbering run reports per rank; ConfigHistogram
// counts local elements by the configuration row they were finally numbered
// under.
type RunSummary struct {
	RunID            string
	Rank             int
	NumRanks         int
	NumLocalElements int
	GlobalNodeCount  int
	OwnedCount       int
	SharedCount      int
	GlobalOffset     int
	ConfigHistogram  map[uint8]int
	PhaseTimings     map[string]interface{}
	CreatedAt        time.Time
}

// ToRecord encodes a RunSummary into its storage representation.
func (s *RunSummary) ToRecord() (*RunRecord, error) {
	timingsJSON, err := json.Marshal(s.PhaseTimings)
	if err != nil {
		return nil, err
	}
	histJSON, err := json.Marshal(s.ConfigHistogram)
	if err != nil {
		return nil, err
	}
	return &RunRecord{
		RunID:            s.RunID,
		Rank:             s.Rank,
		NumRanks:         s.NumRanks,
		NumLocalElements: s.NumLocalElements,
		GlobalNodeCount:  s.GlobalNodeCount,
		OwnedCount:       s.OwnedCount,
		SharedCount:      s.SharedCount,
		GlobalOffset:     s.GlobalOffset,
		ConfigHistogram:  JSONField(histJSON),
		PhaseTimings:     JSONField(timingsJSON),
	}, nil
}

// ToSummary decodes a RunRecord into its domain representation.
func (r *RunRecord) ToSummary() (*RunSummary, error) {
	summary := &RunSummary{
		RunID:            r.RunID,
		Rank:             r.Rank,
		NumRanks:         r.NumRanks,
		NumLocalElements: r.NumLocalElements,
		GlobalNodeCount:  r.GlobalNodeCount,
		OwnedCount:       r.OwnedCount,
		SharedCount:      r.SharedCount,
		GlobalOffset:     r.GlobalOffset,
		CreatedAt:        r.CreatedAt,
	}
	if r.PhaseTimings != nil {
		if err := json.Unmarshal(r.PhaseTimings, &summary.PhaseTimings); err != nil {
			return nil, err
		}
	}
	if r.ConfigHistogram != nil {
		if err := json.Unmarshal(r.ConfigHistogram, &summary.ConfigHistogram); err != nil {
			return nil, err
		}
	}
	return summary, nil
}
