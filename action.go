package mia

// Action identifies the branch taken when a Choice is activated. The
// conversation machine maps every Action to a handler at construction time,
// so an unmapped token is caught before any conversation runs.
type Action string

const (
	ActionBegin           Action = "begin"
	ActionShowClicks      Action = "show_clicks"
	ActionSkipClicks      Action = "skip_clicks"
	ActionStreamInsight   Action = "stream_insight"
	ActionConnectPlatform Action = "connect_platform"
	ActionRetryConnect    Action = "retry_connect"
	ActionSkipConnect     Action = "skip_connect"
	ActionStreamCombined  Action = "stream_combined"
	ActionFinish          Action = "finish"
)

// Actions returns every defined action token. The machine constructor
// iterates this to verify handler coverage.
func Actions() []Action {
	return []Action{
		ActionBegin,
		ActionShowClicks,
		ActionSkipClicks,
		ActionStreamInsight,
		ActionConnectPlatform,
		ActionRetryConnect,
		ActionSkipConnect,
		ActionStreamCombined,
		ActionFinish,
	}
}
