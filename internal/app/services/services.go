package services

// Services defined in this package:
// - CourseService: course catalog with case-insensitive code uniqueness and cascading delete
// - StudentService: student accounts and their uniqueness rules
// - EnrollmentService: enrollment ledger access with existence checks
// - AuthService: login, logout and credential change
// - AIService: course description and resource optimization drafting
// - DashboardService: role specific summaries
// - ExportService: spreadsheet export of the catalog
