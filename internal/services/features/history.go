package features

import (
    "time"

    "LoadPulse/internal/domain/models"
    "LoadPulse/pkg/util"
)

// History indexes raw workouts and wellness logs by civil day so the
// extractor can do O(1) lookups while scanning windows. Build it once per
// extraction run; it holds read-only views of the host's records.
type History struct {
    workouts map[string][]*models.WorkoutSession
    logs     map[string]*models.DailyWellnessLog
    first    time.Time
    last     time.Time
    empty    bool
}

// NewHistory builds the day index. Both slices may be empty.
func NewHistory(sessions []models.WorkoutSession, wellness []models.DailyWellnessLog) *History {
    h := &History{
        workouts: make(map[string][]*models.WorkoutSession, len(sessions)),
        logs:     make(map[string]*models.DailyWellnessLog, len(wellness)),
        empty:    true,
    }

    for i := range sessions {
        s := &sessions[i]
        day := util.Day(s.Date)
        h.workouts[util.DayKey(day)] = append(h.workouts[util.DayKey(day)], s)
        h.observe(day)
    }
    for i := range wellness {
        w := &wellness[i]
        day := util.Day(w.Date)
        // at most one log per day; last write wins on host-side duplicates
        h.logs[util.DayKey(day)] = w
        h.observe(day)
    }
    return h
}

func (h *History) observe(day time.Time) {
    if h.empty {
        h.first, h.last, h.empty = day, day, false
        return
    }
    if day.Before(h.first) {
        h.first = day
    }
    if day.After(h.last) {
        h.last = day
    }
}

// WorkoutsOn returns the sessions completed on the given day.
func (h *History) WorkoutsOn(day time.Time) []*models.WorkoutSession {
    return h.workouts[util.DayKey(day)]
}

// LogOn returns the wellness log for the given day, or nil.
func (h *History) LogOn(day time.Time) *models.DailyWellnessLog {
    return h.logs[util.DayKey(day)]
}

// HasSignal reports whether the day carried a workout or a wellness log.
func (h *History) HasSignal(day time.Time) bool {
    key := util.DayKey(day)
    if _, ok := h.workouts[key]; ok {
        return true
    }
    _, ok := h.logs[key]
    return ok
}

// Empty reports whether no records exist at all.
func (h *History) Empty() bool { return h.empty }

// First returns the earliest recorded day. Zero time when empty.
func (h *History) First() time.Time { return h.first }

// Last returns the latest recorded day. Zero time when empty.
func (h *History) Last() time.Time { return h.last }

// SpanDays returns the inclusive day count between the first and last
// record, 0 when empty.
func (h *History) SpanDays() int {
    if h.empty {
        return 0
    }
    return util.DaysBetween(h.first, h.last) + 1
}

// EligibleDays counts days between first and last that carry signal.
func (h *History) EligibleDays() int {
    if h.empty {
        return 0
    }
    n := 0
    for d := h.first; !d.After(h.last); d = d.AddDate(0, 0, 1) {
        if h.HasSignal(d) {
            n++
        }
    }
    return n
}
