package mia

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	AgentMsg int // Agent bubble accent
	UserMsg  int // User echo accent
	Card     int // Rich card border and title
	Choice   int // Choice labels
	Error    int // Error messages
	Success  int // Success indicators
	Muted    int // Typing indicator, placeholders
	Accent   int // Headings, emphasis in markdown
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		AgentMsg: 6,
		UserMsg:  4,
		Card:     5,
		Choice:   3,
		Error:    1,
		Success:  2,
		Muted:    8,
		Accent:   5,
	}
}
