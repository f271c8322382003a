package domain

import "time"

// SensorReading 客流传感器原始数据（对应 video_analysis 表）
// 每个摄像头每个固定时段一行，由外部采集进程写入，只读
type SensorReading struct {
	ID int64 `db:"id"` // BIGSERIAL

	CameraID string `db:"camera_name"` // VARCHAR(20), NOT NULL, 如 "A1".."A8"

	// 半开时间窗 [StartTime, EndTime)，同一摄像头内不重叠
	StartTime time.Time `db:"start_time"` // TIMESTAMP, NOT NULL
	EndTime   time.Time `db:"end_time"`   // TIMESTAMP, NOT NULL

	// 人数统计（in/out 独立测量，与 TotalCount 之间没有约束）
	TotalCount int `db:"total_people"`
	InCount    int `db:"in_count"`
	OutCount   int `db:"out_count"`

	// 性别轴计数，male+female+unknown 名义上等于 TotalCount，但消费方必须容忍不一致
	MaleCount          int `db:"male_count"`
	FemaleCount        int `db:"female_count"`
	UnknownGenderCount int `db:"unknown_gender_count"`

	// 年龄轴计数，与性别轴独立（儿童可能同时计入任一性别桶）
	MinorCount int `db:"minor_count"`
}
