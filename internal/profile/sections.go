package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"linkedin-ingest/internal/models"
	"linkedin-ingest/internal/utils"
)

// headlinePlaceholder is what the upstream sends for an unset headline.
const headlinePlaceholder = "--"

// sectionBuilder renders one list-valued profile section.
type sectionBuilder struct {
	key    string
	header string
	item   func(b *Builder, item gjson.Result, fullName string) (string, error)
}

// sectionBuilders in document order, keyed by the RawProfile list they read.
var sectionBuilders = []sectionBuilder{
	{"experience", "# EXPERIENCES", (*Builder).experienceItem},
	{"education", "# EDUCATION", (*Builder).educationItem},
	{"projects", "# PROJECTS", (*Builder).projectItem},
	{"honors", "# HONORS", (*Builder).honorItem},
	{"certifications", "# LICENSES AND CERTIFICATIONS", (*Builder).certificationItem},
	{"publications", "# PUBLICATIONS", (*Builder).publicationItem},
	{"volunteer", "# VOLUNTEER", (*Builder).volunteerItem},
}

// FullName joins first, optional middle, and last name.
func FullName(raw models.RawProfile) (string, error) {
	doc := raw.Root()
	first, err := requireString(doc, "firstName")
	if err != nil {
		return "", err
	}
	last, err := requireString(doc, "lastName")
	if err != nil {
		return "", err
	}
	name := first + " "
	if middle, ok := optionalString(doc, "middleName"); ok {
		name += middle + " "
	}
	return name + last, nil
}

// Summary renders the profile header block.
func Summary(raw models.RawProfile, fullName string) string {
	doc := raw.Root()
	var sb strings.Builder
	sb.WriteString("PROFILE OF: " + fullName + "\n")
	if headline, ok := optionalString(doc, "headline"); ok && headline != headlinePlaceholder {
		sb.WriteString("HEADLINE: " + headline + "\n")
	}
	var location []string
	if city, ok := optionalString(doc, "geoLocationName"); ok {
		location = append(location, city)
	}
	if country, ok := optionalString(doc, "geoCountryName"); ok {
		location = append(location, country)
	}
	if len(location) > 0 {
		sb.WriteString("LOCATION: " + strings.Join(location, ", ") + "\n")
	}
	if about, ok := optionalString(doc, "summary"); ok {
		sb.WriteString("\n# ABOUT\n\"\"\"\n" + about + "\n\"\"\"\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (b *Builder) status(period *models.DateRange) string {
	if utils.IsOngoing(period, b.now()) {
		return tagCurrent + "\n"
	}
	return tagPrevious + "\n"
}

func (b *Builder) experienceItem(item gjson.Result, _ string) (string, error) {
	title, err := requireString(item, "title")
	if err != nil {
		return "", err
	}
	period, err := timePeriod(item)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.status(period))
	sb.WriteString(title)
	if company, ok := optionalString(item, "companyName"); ok {
		sb.WriteString(" at " + company)
	}
	sb.WriteString("\n")
	if period != nil {
		sb.WriteString(utils.FormatDuration(*period))
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

func (b *Builder) educationItem(item gjson.Result, _ string) (string, error) {
	school, err := requireString(item, "schoolName")
	if err != nil {
		return "", err
	}
	period, err := timePeriod(item)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.status(period))
	sb.WriteString("INSTITUTION: " + school + "\n")
	if degree, ok := optionalString(item, "degreeName"); ok {
		sb.WriteString("DEGREE: " + degree + "\n")
	}
	if field, ok := optionalString(item, "fieldOfStudy"); ok {
		sb.WriteString("FIELD OF STUDY: " + field + "\n")
	}
	if period != nil {
		sb.WriteString(utils.FormatDuration(*period))
	}
	if grade, ok := optionalString(item, "grade"); ok {
		sb.WriteString("GRADE: " + grade + "\n")
	}
	if activities, ok := optionalString(item, "activities"); ok {
		sb.WriteString(fenced("ACTIVITIES AND SOCIETIES", activities))
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

func (b *Builder) projectItem(item gjson.Result, fullName string) (string, error) {
	title, err := requireString(item, "title")
	if err != nil {
		return "", err
	}
	period, err := timePeriod(item)
	if err != nil {
		return "", err
	}
	members := 1
	if m := item.Get("members"); m.Exists() && m.Type != gjson.Null {
		if !m.IsArray() {
			return "", fmt.Errorf("field %q is not a list", "members")
		}
		members = len(m.Array())
	}

	var sb strings.Builder
	sb.WriteString(b.status(period))
	sb.WriteString("NAME: " + title + "\n")
	sb.WriteString("MEMBERS: " + fullName + others(members) + "\n")
	if period != nil {
		sb.WriteString(utils.FormatDuration(*period))
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

func (b *Builder) honorItem(item gjson.Result, _ string) (string, error) {
	title, err := requireString(item, "title")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("NAME: " + title + "\n")
	if issuer, ok := optionalString(item, "issuer"); ok {
		sb.WriteString("ISSUED BY: " + issuer + "\n")
	}
	if v := item.Get("issueDate"); present(v) {
		date, err := dayDate(v)
		if err != nil {
			return "", fmt.Errorf("issueDate: %w", err)
		}
		sb.WriteString("ISSUE DATE: " + date + "\n")
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

func (b *Builder) certificationItem(item gjson.Result, _ string) (string, error) {
	name, err := requireString(item, "name")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("NAME: " + name + "\n")
	if authority, ok := optionalString(item, "authority"); ok {
		sb.WriteString("ISSUED BY: " + authority + "\n")
	}
	if v := item.Get("timePeriod"); present(v) {
		start := v.Get("startDate")
		if !start.Exists() {
			return "", fmt.Errorf("timePeriod: missing required field %q", "startDate")
		}
		date, err := dayDate(start)
		if err != nil {
			return "", fmt.Errorf("timePeriod.startDate: %w", err)
		}
		sb.WriteString("ISSUE DATE: " + date + "\n")
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

func (b *Builder) publicationItem(item gjson.Result, fullName string) (string, error) {
	name, err := requireString(item, "name")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("TITLE: " + name + "\n")
	if authors := item.Get("authors"); present(authors) {
		if !authors.IsArray() {
			return "", fmt.Errorf("field %q is not a list", "authors")
		}
		sb.WriteString("AUTHORS: " + fullName + others(len(authors.Array())) + "\n")
	}
	if v := item.Get("date"); present(v) {
		date, err := dayDate(v)
		if err != nil {
			return "", fmt.Errorf("date: %w", err)
		}
		sb.WriteString("PUBLICATION DATE: " + date + "\n")
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

func (b *Builder) volunteerItem(item gjson.Result, _ string) (string, error) {
	role, err := requireString(item, "role")
	if err != nil {
		return "", err
	}
	company, err := requireString(item, "companyName")
	if err != nil {
		return "", err
	}
	period, err := timePeriod(item)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.status(period))
	sb.WriteString(role + " at " + company + "\n")
	if cause, ok := optionalString(item, "cause"); ok {
		sb.WriteString("CAUSE: " + cause + "\n")
	}
	if period != nil {
		sb.WriteString(utils.FormatDuration(*period))
	}
	if desc, ok := optionalString(item, "description"); ok {
		sb.WriteString(fenced("DESCRIPTION", desc))
	}
	return sb.String(), nil
}

// Skills renders the skills section as one comma separated line.
func Skills(raw models.RawProfile) (string, error) {
	items, err := records(raw, "skills")
	if err != nil || len(items) == 0 {
		return "", err
	}
	names := make([]string, 0, len(items))
	for i, item := range items {
		name, err := requireString(item, "name")
		if err != nil {
			return "", fmt.Errorf("skills[%d]: %w", i, err)
		}
		names = append(names, name)
	}
	return "# SKILLS\n" + strings.Join(names, ", "), nil
}

// Languages renders "name (proficiency)" pairs on one line.
func Languages(raw models.RawProfile) (string, error) {
	items, err := records(raw, "languages")
	if err != nil || len(items) == 0 {
		return "", err
	}
	langs := make([]string, 0, len(items))
	for i, item := range items {
		name, err := requireString(item, "name")
		if err != nil {
			return "", fmt.Errorf("languages[%d]: %w", i, err)
		}
		if proficiency, ok := optionalString(item, "proficiency"); ok {
			name += " (" + proficiency + ")"
		}
		langs = append(langs, name)
	}
	return "# LANGUAGES\n" + strings.Join(langs, ", "), nil
}

func dayDate(v gjson.Result) (string, error) {
	d, err := models.ParsePartialDate(v)
	if err != nil {
		return "", err
	}
	return utils.FormatDate(d, utils.PrecisionDay)
}

// build renders every item of s's list under its header.
func (b *Builder) build(raw models.RawProfile, s sectionBuilder, fullName string) (string, error) {
	items, err := records(raw, s.key)
	if err != nil {
		return "", err
	}
	blocks := make([]string, 0, len(items))
	for i, item := range items {
		block, err := s.item(b, item, fullName)
		if err != nil {
			return "", fmt.Errorf("%s[%d]: %w", s.key, i, err)
		}
		blocks = append(blocks, block)
	}
	return section(s.header, blocks), nil
}

// clock returns time.Now unless a fixed clock was injected.
func clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
