package domain

// Section names shown in the dashboard navigation.
const (
	SectionReviews      = "Reviews"
	SectionProducts     = "Products"
	SectionTestimonials = "Testimonials"
)

var Sections = []string{SectionReviews, SectionProducts, SectionTestimonials}

// Table is an opaque delimited table kept in source column order.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t Table) Len() int { return len(t.Rows) }

// Records returns every row keyed by column name. Short rows yield empty values.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				m[c] = row[i]
			} else {
				m[c] = ""
			}
		}
		out = append(out, m)
	}
	return out
}
