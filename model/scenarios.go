package model

import (
	"time"

	"evolve/chart"
)

// DefaultRules is the built-in demo table. The literals target the Zomato
// annual-report dataset and are fixtures, not a general classifier.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent: IntentShareholdingPie,
			Require: [][]string{
				{"pie chart"},
				{"zomato"},
				{"fy 2024", "fy 2024-25", "2024"},
			},
			Produce: shareholdingPie,
		},
		{
			Intent: IntentSalesComparison,
			Require: [][]string{
				{"sales data"},
				{"fy23", "fy 23"},
				{"fy24", "fy 24", "24"},
			},
			Produce: salesComparison,
		},
		{
			Intent: IntentBoardHierarchy,
			Require: [][]string{
				{"board"},
				{"hierarchy"},
				{"zomato"},
			},
			Produce: boardHierarchy,
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func shareholdingPie(now time.Time) []Message {
	text := newMessage("ai_text", SenderAssistant, KindText,
		"Zomato’s shareholding pattern for FY 2024-25 shows that public investors dominate with 94.02% ownership. "+
			"Institutions hold the largest share at 67.92%, while non-institutions account for 26.10%. "+
			"Additionally, the Employee Benefit Trust holds 5.98% of the total shares, and promoters hold none.",
		nil, now)

	spec := &chart.Spec{
		Type: chart.TypePie,
		Data: chart.Data{
			Labels: chart.LabelList{"Institutions", "Non-Institutions", "Employee Benefit Trust"},
			Datasets: []chart.Dataset{
				{
					Label: "Zomato Shareholding Pattern FY 2024-25",
					Data:  []float64{67.92, 26.1, 5.98},
					BackgroundColor: chart.ColorList{
						"rgba(54, 162, 235, 0.7)",
						"rgba(255, 206, 86, 0.7)",
						"rgba(75, 192, 192, 0.7)",
					},
					BorderColor: chart.ColorList{
						"rgba(54, 162, 235, 1)",
						"rgba(255, 206, 86, 1)",
						"rgba(75, 192, 192, 1)",
					},
					BorderWidth: 1,
				},
			},
		},
		Options: chart.Options{
			Responsive: true,
			Plugins: chart.Plugins{
				Legend: &chart.Legend{Display: boolPtr(true), Position: "top"},
				Title:  &chart.Title{Display: true, Text: "Zomato Shareholding Pattern as of March 31, 2025"},
			},
		},
	}

	viz := newMessage("ai_chart", SenderAssistant, KindChart,
		"Pie chart generated from the data for FY 2024-25", &Payload{Chart: spec}, now)

	return []Message{text, viz}
}

func salesComparison(now time.Time) []Message {
	text := newMessage("ai_text", SenderAssistant, KindText,
		"Zomato’s total adjusted revenue grew from INR 8,693 crore in FY23 to INR 13,545 crore in FY24, a 56% increase. "+
			"Food delivery remained the largest contributor, while quick commerce nearly tripled. "+
			"Hyperpure revenue more than doubled, and the going-out segment also saw healthy growth.",
		nil, now)

	spec := &chart.Spec{
		Type: chart.TypeBar,
		Data: chart.Data{
			Labels: chart.LabelList{"Food Delivery", "Quick Commerce", "Going-out", "B2B Supplies (Hyperpure)", "Others"},
			Datasets: []chart.Dataset{
				{
					Label:           "FY23 Adjusted Revenue (INR crore)",
					Data:            []float64{6147, 806, 171, 1506, 63},
					BackgroundColor: chart.ColorList{"rgba(54, 162, 235, 0.7)"},
					BorderColor:     chart.ColorList{"rgba(54, 162, 235, 1)"},
					BorderWidth:     1,
				},
				{
					Label:           "FY24 Adjusted Revenue (INR crore)",
					Data:            []float64{7792, 2301, 258, 3172, 22},
					BackgroundColor: chart.ColorList{"rgba(255, 99, 132, 0.7)"},
					BorderColor:     chart.ColorList{"rgba(255, 99, 132, 1)"},
					BorderWidth:     1,
				},
			},
		},
		Options: chart.Options{
			Responsive:          true,
			MaintainAspectRatio: boolPtr(false),
			Plugins: chart.Plugins{
				Legend: &chart.Legend{Display: boolPtr(true), Position: "top"},
				Title:  &chart.Title{Display: true, Text: "Consolidated Adjusted Revenue by Business Segment (FY23 vs FY24)"},
			},
			Scales: map[string]chart.Axis{
				"x": {Title: &chart.Title{Display: true, Text: "Business Segment"}},
				"y": {BeginAtZero: true, Title: &chart.Title{Display: true, Text: "Adjusted Revenue (INR crore)"}},
			},
		},
	}

	viz := newMessage("ai_chart", SenderAssistant, KindChart,
		"Bar chart comparing FY23 and FY24 adjusted revenue by segment", &Payload{Chart: spec}, now)

	return []Message{text, viz}
}

const boardDiagram = `flowchart TB
    A[Zomato Limited - Board of Directors]

    A --> B[Deepinder Goyal<br>Founder & CEO]
    A --> C[Sanjiv Bikhchandani<br>Non-Executive Director]
    A --> D[Kaushik Dutta<br>Independent Director]
    A --> E[Aparna Popat<br>Independent Director]
    A --> F[Sutapa Banerjee<br>Independent Director]`

func boardHierarchy(now time.Time) []Message {
	text := newMessage("ai_text", SenderAssistant, KindText,
		"Zomato Limited’s Board of Directors is led by Founder & CEO Deepinder Goyal. "+
			"The board also includes Sanjiv Bikhchandani as a Non-Executive Director, and independent directors "+
			"Kaushik Dutta, Aparna Popat, and Sutapa Banerjee. This structure ensures balanced governance "+
			"with executive, non-executive, and independent oversight.",
		nil, now)

	viz := newMessage("ai_mermaid", SenderAssistant, KindChart,
		"Board hierarchy diagram", &Payload{Diagram: boardDiagram}, now)

	return []Message{text, viz}
}
