package datascope

import "time"

/* ========================================================================
 * TimeRange - 时间变量取值
 * ========================================================================
 * 职责: 计算时间类变量对应的时间点与时间区间
 * ======================================================================== */

// timeNow 可注入的时钟，测试用
var timeNow = time.Now

// TimeRange 闭区间时间范围
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// dayStart 当天 00:00:00
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayEnd 当天 23:59:59
func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// todayRange 今天整天
func todayRange() TimeRange {
	now := timeNow()
	return TimeRange{Start: dayStart(now), End: dayEnd(now)}
}

// lastDayRange 昨天整天
func lastDayRange() TimeRange {
	y := timeNow().AddDate(0, 0, -1)
	return TimeRange{Start: dayStart(y), End: dayEnd(y)}
}

// lastWeekRange 最近 7 天（滚动窗口，含当前时刻）
func lastWeekRange() TimeRange {
	now := timeNow()
	return TimeRange{Start: now.AddDate(0, 0, -7), End: now}
}

// lastMonthRange 最近 30 天（滚动窗口，含当前时刻）
func lastMonthRange() TimeRange {
	now := timeNow()
	return TimeRange{Start: now.AddDate(0, 0, -30), End: now}
}

// currentMonthRange 本自然月
func currentMonthRange() TimeRange {
	now := timeNow()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return TimeRange{Start: start, End: dayEnd(start.AddDate(0, 1, -1))}
}

// currentQuarterRange 本自然季度
func currentQuarterRange() TimeRange {
	now := timeNow()
	quarterFirstMonth := time.Month((int(now.Month())-1)/3*3 + 1)
	start := time.Date(now.Year(), quarterFirstMonth, 1, 0, 0, 0, 0, now.Location())
	return TimeRange{Start: start, End: dayEnd(start.AddDate(0, 3, -1))}
}

// currentYearRange 本自然年
func currentYearRange() TimeRange {
	return TimeRange{Start: yearStart(), End: yearEnd()}
}

// yearStart 本年 1 月 1 日 00:00:00
func yearStart() time.Time {
	now := timeNow()
	return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
}

// yearEnd 本年 12 月 31 日 23:59:59
func yearEnd() time.Time {
	now := timeNow()
	return time.Date(now.Year(), 12, 31, 23, 59, 59, 0, now.Location())
}
