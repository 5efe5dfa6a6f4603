package dto

type DashboardStats struct {
	TotalLeads      int64  `json:"totalLeads"`
	Conversions     int64  `json:"conversions"`
	ConversionRate  string `json:"conversionRate"`
	AvgResponseTime string `json:"avgResponseTime"`
}

type TeamMemberPerformance struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Leads          int64  `json:"leads"`
	Conversions    int64  `json:"conversions"`
	ConversionRate string `json:"conversionRate"`
}

type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type SourceConversion struct {
	Source    string `json:"source"`
	Total     int64  `json:"total"`
	Converted int64  `json:"converted"`
	Rate      string `json:"rate"`
}

type MonthlyTrend struct {
	Month       string `json:"month"`
	Leads       int64  `json:"leads"`
	Conversions int64  `json:"conversions"`
}
