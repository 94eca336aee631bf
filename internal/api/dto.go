package api

import (
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/history"
	"github.com/starford/dagaz/internal/trackservice"
)

// TrackerInfo is a list item describing one loaded tracker (aliased from the
// domain layer).
type TrackerInfo = trackservice.TrackerInfo

// TrackerListResponse wraps the tracker listing.
type TrackerListResponse struct {
	Trackers []TrackerInfo `json:"trackers" validate:"required"`
}

// PointDTO is one day of a dataset. Value is null on gap days.
type PointDTO struct {
	Date  string   `json:"date" example:"2023-01-05" validate:"required"`
	Value *float64 `json:"value" example:"30"`
}

// DatasetDTO is one assembled dataset of a run.
type DatasetDTO struct {
	QueryID    int        `json:"query_id" example:"0" validate:"required"`
	QueryType  string     `json:"query_type" example:"tag" validate:"required"`
	Target     string     `json:"target" example:"pushup" validate:"required"`
	TimeValued bool       `json:"time_valued" example:"false"`
	Points     []PointDTO `json:"points" validate:"required"`
}

// RunResponse is returned after a tracker run.
type RunResponse struct {
	RunID       int64        `json:"run_id" example:"7" validate:"required"`
	Tracker     string       `json:"tracker" example:"exercise" validate:"required"`
	WindowStart string       `json:"window_start" example:"2023-01-05" validate:"required"`
	WindowEnd   string       `json:"window_end" example:"2023-01-31" validate:"required"`
	Datasets    []DatasetDTO `json:"datasets" validate:"required"`
}

// LatestResponse wraps the newest stored run of a tracker.
type LatestResponse struct {
	Run      history.Run  `json:"run" validate:"required"`
	Datasets []DatasetDTO `json:"datasets" validate:"required"`
}

// RunListResponse wraps the run history of a tracker.
type RunListResponse struct {
	Runs []history.Run `json:"runs" validate:"required"`
}

func datasetFromEngine(ds engine.Dataset) DatasetDTO {
	out := DatasetDTO{
		QueryID:    ds.Query.ID,
		QueryType:  ds.Query.Type.String(),
		Target:     ds.Query.Target,
		TimeValued: ds.UsingTimeValue,
		Points:     make([]PointDTO, 0, len(ds.Points)),
	}
	for _, p := range ds.Points {
		dto := PointDTO{Date: engine.FormatDate(p.Date, "YYYY-MM-DD")}
		if p.Valid {
			v := p.Value
			dto.Value = &v
		}
		out.Points = append(out.Points, dto)
	}
	return out
}

func datasetFromSeries(s history.Series) DatasetDTO {
	out := DatasetDTO{
		QueryID:    s.QueryID,
		QueryType:  s.QueryType,
		Target:     s.Target,
		TimeValued: s.TimeValued,
		Points:     make([]PointDTO, 0, len(s.Points)),
	}
	for _, p := range s.Points {
		out.Points = append(out.Points, PointDTO{Date: p.Date, Value: p.Value})
	}
	return out
}
