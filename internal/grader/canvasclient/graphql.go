package canvasclient

import (
	"autograder/internal/grader/model"
)

const assignmentQuery = `query AssignmentForGrading($assignmentId: ID!) {
  assignment(id: $assignmentId) {
    _id
    name
    course { _id }
    rubric {
      _id
      title
      pointsPossible
      criteria { _id description longDescription points }
    }
    submissionsConnection(filter: {includeUnsubmitted: true}) {
      nodes {
        _id
        excused
        missing
        user { _id name }
        attachments { displayName url }
        rubricAssessmentsConnection {
          nodes { rubricAssociation { _id } }
        }
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type assignmentResponse struct {
	Data struct {
		Assignment *gqlAssignment `json:"assignment"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type gqlAssignment struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Course struct {
		ID string `json:"_id"`
	} `json:"course"`
	Rubric *struct {
		ID             string   `json:"_id"`
		Title          string   `json:"title"`
		PointsPossible *float64 `json:"pointsPossible"`
		Criteria       []struct {
			ID              string  `json:"_id"`
			Description     string  `json:"description"`
			LongDescription *string `json:"longDescription"`
			Points          float64 `json:"points"`
		} `json:"criteria"`
	} `json:"rubric"`
	Submissions struct {
		Nodes []gqlSubmission `json:"nodes"`
	} `json:"submissionsConnection"`
}

type gqlSubmission struct {
	ID      string `json:"_id"`
	Excused bool   `json:"excused"`
	Missing bool   `json:"missing"`
	User    *struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	} `json:"user"`
	Attachments []struct {
		DisplayName string `json:"displayName"`
		URL         string `json:"url"`
	} `json:"attachments"`
	RubricAssessments struct {
		Nodes []struct {
			RubricAssociation *struct {
				ID string `json:"_id"`
			} `json:"rubricAssociation"`
		} `json:"nodes"`
	} `json:"rubricAssessmentsConnection"`
}

func (a *gqlAssignment) toModel() *model.Assignment {
	out := &model.Assignment{
		ID:       a.ID,
		Name:     a.Name,
		CourseID: a.Course.ID,
	}
	if r := a.Rubric; r != nil {
		out.Rubric = model.Rubric{ID: r.ID, Title: r.Title}
		if r.PointsPossible != nil {
			out.Rubric.PointsPossible = *r.PointsPossible
		}
		for _, c := range r.Criteria {
			crit := model.Criterion{ID: c.ID, Description: c.Description, Points: c.Points}
			if c.LongDescription != nil {
				crit.LongDescription = *c.LongDescription
			}
			out.Rubric.Criteria = append(out.Rubric.Criteria, crit)
		}
	}
	for _, s := range a.Submissions.Nodes {
		sub := model.Submission{ID: s.ID, Excused: s.Excused, Missing: s.Missing}
		if s.User != nil {
			sub.User = model.User{ID: s.User.ID, Name: s.User.Name}
		}
		for _, att := range s.Attachments {
			sub.Attachments = append(sub.Attachments, model.Attachment{DisplayName: att.DisplayName, URL: att.URL})
		}
		for _, node := range s.RubricAssessments.Nodes {
			if node.RubricAssociation != nil && node.RubricAssociation.ID != "" {
				sub.RubricAssociationIDs = append(sub.RubricAssociationIDs, node.RubricAssociation.ID)
			}
		}
		out.Submissions = append(out.Submissions, sub)
	}
	return out
}
