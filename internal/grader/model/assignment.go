// Package model defines the assignment metadata read from Canvas and the
// assessment records produced by evaluation.
package model

// Criterion is one pass/fail dimension of a rubric.
type Criterion struct {
	ID              string
	Description     string
	LongDescription string
	Points          float64
}

// Rubric holds criteria in the order Canvas defines them.
type Rubric struct {
	ID             string
	Title          string
	PointsPossible float64
	Criteria       []Criterion
}

// User identifies the owner of a submission.
type User struct {
	ID   string
	Name string
}

// Attachment is one file attached to a submission.
type Attachment struct {
	DisplayName string
	URL         string
}

// Submission is one student's attempt.
type Submission struct {
	ID          string
	User        User
	Excused     bool
	Missing     bool
	Attachments []Attachment
	// RubricAssociationIDs lists the associations of assessments already
	// attached to this submission.
	RubricAssociationIDs []string
}

// Assignment is the full metadata needed for one grading run.
type Assignment struct {
	ID          string
	Name        string
	CourseID    string
	Rubric      Rubric
	Submissions []Submission
}
