package constants

// CPAStage is the Concrete-Pictorial-Abstract progression used by Singapore math.
type CPAStage string

const (
	CPAConcrete  CPAStage = "concrete"
	CPAPictorial CPAStage = "pictorial"
	CPAAbstract  CPAStage = "abstract"
)

// GradeLevel is a primary school level.
type GradeLevel string

const (
	GradeP1 GradeLevel = "Primary 1"
	GradeP2 GradeLevel = "Primary 2"
	GradeP3 GradeLevel = "Primary 3"
	GradeP4 GradeLevel = "Primary 4"
	GradeP5 GradeLevel = "Primary 5"
	GradeP6 GradeLevel = "Primary 6"
)

// Difficulty of a problem.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyChallenging  Difficulty = "challenging"
)
