package model

import (
	"time"

	"gorm.io/datatypes"
)

// Airport 机场维表，ID 为 BTS 数据集内部机场编号（AirportID）
type Airport struct {
	ID    int    `gorm:"column:id;primaryKey;autoIncrement:false;comment:BTS机场编号"`
	Name  string `gorm:"column:name;type:varchar(128);comment:机场名称"`
	City  string `gorm:"column:city;type:varchar(128);comment:城市（截断到第一个逗号前）"`
	State string `gorm:"column:state;type:varchar(8);comment:州/地区代码"`
}

// Flight 航班事实表，(date, origin, destination) 唯一标识一条航班事件
type Flight struct {
	Date        time.Time `gorm:"column:date;type:date;primaryKey;comment:航班日期"`
	Origin      int       `gorm:"column:origin;primaryKey;autoIncrement:false;comment:出发机场ID"`
	Destination int       `gorm:"column:destination;primaryKey;autoIncrement:false;comment:到达机场ID"`

	OriginAirport      *Airport `gorm:"foreignKey:Origin;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	DestinationAirport *Airport `gorm:"foreignKey:Destination;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Airport) TableName() string { return "airport" }
func (Flight) TableName() string  { return "flight" }

// 入库任务状态
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// IngestRun 对应 ingest_runs 表，记录每个月份的一次入库任务
type IngestRun struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RunUUID     string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null" json:"run_uuid"`
	Year        int            `gorm:"column:year;not null;index:idx_run_period" json:"year"`
	Month       int            `gorm:"column:month;not null;index:idx_run_period" json:"month"`
	Status      string         `gorm:"column:status;type:varchar(16);default:'running'" json:"status"`
	Flights     int            `gorm:"column:flights;default:0" json:"flights"`           // 本批航班行数
	Airports    int            `gorm:"column:airports;default:0" json:"airports"`         // 去重后机场数
	DroppedRows int            `gorm:"column:dropped_rows;default:0" json:"dropped_rows"` // 解析失败被丢弃的行数
	Error       *string        `gorm:"column:error;type:text" json:"error,omitempty"`
	Stats       datatypes.JSON `gorm:"column:stats;type:jsonb" json:"stats"`
	StartedAt   time.Time      `gorm:"column:started_at;type:timestamp;default:now()" json:"started_at"`
	FinishedAt  *time.Time     `gorm:"column:finished_at;type:timestamp" json:"finished_at"`
}

func (IngestRun) TableName() string { return "ingest_runs" }
