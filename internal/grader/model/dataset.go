package model

// IntermediateDataset is the only state shared between the evaluation and
// upload phases. It is persisted as one JSON document.
type IntermediateDataset struct {
	CanvasEndpoint      string             `json:"canvasEndpoint"`
	CourseID            string             `json:"courseId"`
	AssignmentID        string             `json:"assignmentId"`
	RubricAssociationID *string            `json:"rubricAssociationId,omitempty"`
	Records             []AssessmentRecord `json:"assessmentOutputDataList"`
}

// AssociationID returns the rubric association id or "" when unknown.
func (d *IntermediateDataset) AssociationID() string {
	if d == nil || d.RubricAssociationID == nil {
		return ""
	}
	return *d.RubricAssociationID
}
