package models

// Reminder defaults applied before settings are first saved.
const (
	DefaultReminderEnabled = true
	DefaultReminderTime    = "08:00"
)

// ReminderSettingsID is the fixed identifier of the settings singleton.
const ReminderSettingsID int64 = 1

// ReminderSettings configures the daily reminder. Only one exists.
type ReminderSettings struct {
	ID      int64  `json:"id,omitempty"`
	Enabled bool   `json:"enabled"`
	Time    string `json:"time"`
	UserID  *int64 `json:"userId"`
}

// DefaultReminderSettings returns the unsaved default settings.
func DefaultReminderSettings() ReminderSettings {
	return ReminderSettings{
		Enabled: DefaultReminderEnabled,
		Time:    DefaultReminderTime,
	}
}

// ReminderPatch is a partial update of the reminder settings.
type ReminderPatch struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Time    *string `json:"time,omitempty"`
}

// Apply returns a copy of s with the patch applied.
func (p ReminderPatch) Apply(s ReminderSettings) ReminderSettings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Time != nil {
		s.Time = *p.Time
	}
	return s
}

// Notification is the payload delivered when the reminder fires.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ReminderNotification returns the reminder's notification payload.
func ReminderNotification() Notification {
	return Notification{
		Title: "Parking Reminder",
		Body:  "Don't forget where you parked!",
	}
}
