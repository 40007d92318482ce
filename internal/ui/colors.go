package ui

// Color accessors return the escape code for the active theme. Under
// NoColorTheme every accessor returns "".

// ColorReset clears all formatting.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorBold starts bold text.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline starts underlined text.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ColorRed is used for failures.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen is used for completed work.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow is used for timings and warnings.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorBlue is used for labels.
func ColorBlue() string { return GetCurrentTheme().Primary }

// ColorMagenta is used for headline values.
func ColorMagenta() string { return GetCurrentTheme().Info }

// ColorCyan is used for secondary values.
func ColorCyan() string { return GetCurrentTheme().Secondary }
