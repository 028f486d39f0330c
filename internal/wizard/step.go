package wizard

// Step is one screen of the linear onboarding flow.
type Step int

const (
	StepBasics Step = iota + 1
	StepShowcase
	StepContact
	StepAvailability
	StepReview
)

const (
	firstStep = StepBasics
	lastStep  = StepReview
)

func (s Step) String() string {
	switch s {
	case StepBasics:
		return "basics"
	case StepShowcase:
		return "showcase"
	case StepContact:
		return "contact"
	case StepAvailability:
		return "availability"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// IsValid reports whether the step is within the flow.
func (s Step) IsValid() bool {
	return s >= firstStep && s <= lastStep
}
