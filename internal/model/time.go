package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// LocalTime 以 "YYYY-MM-DD HH:MM:SS" 格式输出时间，用于面板展示。
type LocalTime time.Time

const timeFormat = "2006-01-02 15:04:05"

// MarshalJSON implements the json.Marshaler interface.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	formatted := fmt.Sprintf("\"%s\"", time.Time(t).Format(timeFormat))
	return []byte(formatted), nil
}

// String 返回格式化后的时间。
func (t LocalTime) String() string {
	return time.Time(t).Format(timeFormat)
}

// scoreTimeLayouts 是历史 scores.json 中出现过的时间写法，无时区的按本地时间解释。
var scoreTimeLayouts = []string{
	timeFormat,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseScoreTime 解析评分记录里的时间字段。
// 支持 RFC3339、"YYYY-MM-DD HH:MM:SS[.ffffff]" 以及毫秒时间戳，null 或空串得到零值。
func ParseScoreTime(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("无法识别的时间: %s", raw)
		}
		return time.UnixMilli(int64(ms)), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range scoreTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法识别的时间: %q", s)
}
