package service

import (
	"context"
	"time"

	"mental-care-go/internal/model"
)

// DashboardPoint 是图表上的一个点。
type DashboardPoint struct {
	Time         time.Time       `json:"time"`
	DisplayTime  model.LocalTime `json:"displayTime"`
	Label        string          `json:"label"`
	Numeric      int             `json:"numeric"`
	Color        string          `json:"color"`
	Content      string          `json:"content"`
	TotalGuess   string          `json:"totalGuess"`
	Unrecognized bool            `json:"unrecognized"`
}

// DashboardService 提供评分的时间序列视图。
type DashboardService struct {
	scores ScoreService
	loc    *time.Location
}

// NewDashboardService 创建看板服务，日期按 loc 划分，nil 表示 UTC。
func NewDashboardService(scores ScoreService, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{scores: scores, loc: loc}
}

// Points 返回用户全部评分对应的点，按时间升序。
func (d *DashboardService) Points(ctx context.Context, username string) ([]DashboardPoint, error) {
	entries, err := d.scores.List(ctx, username)
	if err != nil {
		return nil, err
	}
	points := make([]DashboardPoint, 0, len(entries))
	for _, e := range entries {
		n := model.ScoreToNumeric(e.Score)
		points = append(points, DashboardPoint{
			Time:         e.Time.In(d.loc),
			DisplayTime:  model.LocalTime(e.Time.In(d.loc)),
			Label:        e.Score,
			Numeric:      n,
			Color:        model.ScoreColor(e.Score),
			Content:      e.Content,
			TotalGuess:   e.TotalGuess,
			Unrecognized: n == 0,
		})
	}
	return points, nil
}

// LastWeek 返回最近一条记录所在日期及其前 6 天内的点。
func (d *DashboardService) LastWeek(ctx context.Context, username string) ([]DashboardPoint, error) {
	points, err := d.Points(ctx, username)
	if err != nil || len(points) == 0 {
		return points, err
	}
	start := d.startOfDay(points[len(points)-1].Time).AddDate(0, 0, -6)
	out := make([]DashboardPoint, 0, len(points))
	for _, p := range points {
		if !p.Time.Before(start) {
			out = append(out, p)
		}
	}
	return out, nil
}

// ByDate 返回某个日历日内的点。
func (d *DashboardService) ByDate(ctx context.Context, username string, date time.Time) ([]DashboardPoint, error) {
	points, err := d.Points(ctx, username)
	if err != nil {
		return nil, err
	}
	day := d.startOfDay(date)
	out := make([]DashboardPoint, 0)
	for _, p := range points {
		if d.startOfDay(p.Time).Equal(day) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Location 返回划分日期所用的时区。
func (d *DashboardService) Location() *time.Location {
	return d.loc
}

func (d *DashboardService) startOfDay(t time.Time) time.Time {
	t = t.In(d.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, d.loc)
}
