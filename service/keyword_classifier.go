package service

import (
	"nagrikrakshak/models"
	"strings"
)

// Confidence multipliers applied to the raw keyword hit count.
// Confidence is not clamped: enough hits push it past 100.
const (
	departmentConfidencePerHit = 20
	priorityConfidencePerHit   = 25
)

// KeywordCategory is one row of a keyword table
type KeywordCategory struct {
	Name     string
	Keywords []string
}

// KeywordTable is an ordered list of categories. Order is significant: when
// several categories reach the best score, the first one wins.
type KeywordTable []KeywordCategory

// departmentKeywords routes complaints to the responsible department
var departmentKeywords = KeywordTable{
	{Name: string(models.DepartmentWater), Keywords: []string{
		"water", "supply", "no water", "pipeline", "pipe",
		"tap", "pressure", "tank", "leak", "leakage",
		"dirty water", "drinking water", "water shortage", "manhole", "open manhole",
	}},
	{Name: string(models.DepartmentElectricity), Keywords: []string{
		"electric", "electricity", "power", "current",
		"light", "lights", "streetlight",
		"wire", "spark", "shock",
		"transformer", "pole", "meter",
		"voltage", "power cut", "short circuit",
	}},
	{Name: string(models.DepartmentMunicipality), Keywords: []string{
		"garbage", "waste", "dump", "dumping",
		"drain", "drains", "sewer", "sewage",
		"dirty", "smell", "mosquito",
		"sanitation", "toilet", "dustbin",
	}},
	{Name: string(models.DepartmentPWD), Keywords: []string{
		"road", "roads", "pothole", "potholes",
		"bridge", "flyover", "highway",
		"footpath", "divider", "culvert",
		"crack", "collapse", "asphalt",
		"construction", "speed breaker",
	}},
	{Name: string(models.DepartmentPolice), Keywords: []string{
		"theft", "stolen", "robbery",
		"fight", "fighting", "quarrel",
		"harass", "harassment", "eve teasing",
		"crime", "criminal", "threat",
		"drunk", "alcohol", "drug",
		"noise", "loud", "disturbance",
		"security", "unsafe",
	}},
	{Name: string(models.DepartmentTraffic), Keywords: []string{
		"traffic", "signal", "signals",
		"parking", "jam", "congestion",
		"junction", "crossing",
		"wrong side", "accident",
		"rash driving", "speeding",
		"bus stop", "lane",
	}},
}

// priorityKeywords maps urgency cues to priority tiers
var priorityKeywords = KeywordTable{
	{Name: string(models.PriorityHigh), Keywords: []string{
		"live wire", "electric shock", "fire", "big jam",
		"collapse", "fallen", "burst",
		"open manhole", "accident", "danger",
		"emergency", "attack", "fight", "theft",
	}},
	{Name: string(models.PriorityMedium), Keywords: []string{
		"not working", "damaged", "leak",
		"overflow", "blocked", "frequent",
		"low pressure", "delay",
	}},
	{Name: string(models.PriorityLow), Keywords: []string{
		"dirty", "dust", "small", "minor",
		"slow", "dim", "maintenance",
	}},
}

// DepartmentTable returns a copy of the department keyword table
func DepartmentTable() KeywordTable {
	return departmentKeywords.clone()
}

// PriorityTable returns a copy of the priority keyword table
func PriorityTable() KeywordTable {
	return priorityKeywords.clone()
}

func (t KeywordTable) clone() KeywordTable {
	out := make(KeywordTable, len(t))
	for i, c := range t {
		out[i] = KeywordCategory{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// KeywordScore counts the keyword phrases that occur in text as substrings.
// Each phrase counts once no matter how often it occurs.
func KeywordScore(text string, keywords []string) int {
	score := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			score++
		}
	}
	return score
}

// Classify scores every category of table against already-normalized text and
// returns the best category with its raw score. Ties resolve to the category
// declared first. An empty table yields ("", 0).
func Classify(text string, table KeywordTable) (string, int) {
	best, bestScore := "", -1
	for _, category := range table {
		score := KeywordScore(text, category.Keywords)
		if score > bestScore {
			best, bestScore = category.Name, score
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// ClassifyDepartment picks the responsible department for normalized text.
// Confidence is 20 per keyword hit.
func ClassifyDepartment(text string) (models.Department, int) {
	name, score := Classify(text, departmentKeywords)
	return models.Department(name), score * departmentConfidencePerHit
}

// ClassifyPriority picks the priority tier for normalized text.
// Confidence is 25 per keyword hit.
func ClassifyPriority(text string) (models.Priority, int) {
	name, score := Classify(text, priorityKeywords)
	return models.Priority(name), score * priorityConfidencePerHit
}
