// Package clock 业务时钟
// "当天""过去30天"这类规则都按业务时区的自然日计算，Now返回的时间已转换到业务时区
package clock

import "time"

// Clock 时钟
type Clock interface {
	Now() time.Time
}

type system struct {
	loc *time.Location
}

// New 创建按loc输出时间的系统时钟，loc为nil时使用本地时区
func New(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return system{loc: loc}
}

func (s system) Now() time.Time {
	return time.Now().In(s.loc)
}

// StartOfDay t所在自然日的零点（t的时区）
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
