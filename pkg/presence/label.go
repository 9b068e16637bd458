package presence

import "fmt"

// FaceLabel describes a face count for people.
func FaceLabel(faces int) string {
	switch {
	case faces <= 0:
		return "Nobody detected"
	case faces == 1:
		return "1 person"
	default:
		return fmt.Sprintf("%d people", faces)
	}
}

// BrightnessLabel describes a brightness level for people.
func BrightnessLabel(level int) string {
	switch {
	case level < 0:
		return "Not set"
	case level == 0:
		return "Off (0%)"
	default:
		return fmt.Sprintf("%d%%", level)
	}
}
