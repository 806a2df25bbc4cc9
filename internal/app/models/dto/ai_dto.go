package dto

// CourseDescriptionRequest asks for a catalog description draft
type CourseDescriptionRequest struct {
	CourseTitle string `json:"courseTitle" binding:"required" example:"Intro to Programming"`
	CourseCode  string `json:"courseCode" binding:"required" example:"CS101"`
	Keywords    string `json:"keywords,omitempty" example:"variables, loops, functions"`
}

// CourseDescriptionResponse carries the generated description
type CourseDescriptionResponse struct {
	Description string `json:"description" binding:"required"`
}

// ResourceOptimizationRequest describes current resource usage
type ResourceOptimizationRequest struct {
	CurrentEnrollment float64  `json:"currentEnrollment" binding:"required,min=1" example:"1200"`
	AvailableBudget   *float64 `json:"availableBudget" binding:"required,min=0" example:"50000"`
	ExistingResources string   `json:"existingResources" binding:"required,min=10" example:"3 labs with 40 seats each, 2 lecture halls"`
	HistoricalData    string   `json:"historicalData" binding:"required,min=10" example:"Lab utilisation peaked at 95% in week 6"`
}

// ResourceOptimizationResponse carries the generated suggestions
type ResourceOptimizationResponse struct {
	Suggestions   string `json:"suggestions" binding:"required"`
	Justification string `json:"justification" binding:"required"`
}
