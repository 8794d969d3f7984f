package dataset

import (
	"fmt"
	"math/rand"
	"strconv"
)

// Student dataset column names produced by GenerateStudents.
const (
	ColStudentID  = "student_id"
	ColMajor      = "major"
	ColGender     = "gender"
	ColStudyHours = "weekly_study_hours"
	ColAttendance = "attendance_rate"
	ColMidterm    = "midterm_score"
	ColFinal      = "final_score"
	ColHomework   = "homework_completion"
)

// Penguin dataset column names produced by GeneratePenguins.
const (
	ColSpecies       = "species"
	ColIsland        = "island"
	ColBillLength    = "bill_length_mm"
	ColBillDepth     = "bill_depth_mm"
	ColFlipperLength = "flipper_length_mm"
	ColBodyMass      = "body_mass_g"
	ColSex           = "sex"
)

// Majors are the programmes sampled by GenerateStudents.
var Majors = []string{
	"Big Data Management",
	"Artificial Intelligence",
	"Computer Science",
	"Software Engineering",
	"Information Security",
}

// Genders are the values sampled for the gender column.
var Genders = []string{"male", "female"}

// GenerateStudents returns n synthetic student records. It is the fallback
// used when no student data file is available.
func GenerateStudents(n int, rng *rand.Rand) *Table {
	columns := []string{
		ColStudentID, ColMajor, ColGender, ColStudyHours,
		ColAttendance, ColMidterm, ColFinal, ColHomework,
	}
	rows := make([][]string, n)
	for i := range n {
		rows[i] = []string{
			fmt.Sprintf("2023%06d", i+1),
			Majors[rng.Intn(len(Majors))],
			Genders[rng.Intn(len(Genders))],
			formatFloat(uniform(rng, 5, 40), 1),
			formatFloat(uniform(rng, 0.6, 1.0), 2),
			formatFloat(uniform(rng, 50, 95), 1),
			formatFloat(uniform(rng, 50, 95), 1),
			formatFloat(uniform(rng, 0.6, 1.0), 2),
		}
	}
	return &Table{Columns: columns, Rows: rows, index: indexOf(columns)}
}

type penguinProfile struct {
	species                 string
	islands                 []string
	billLength, billDepth   normal
	flipperLength, bodyMass normal
}

type normal struct {
	mean, sd float64
}

func (d normal) sample(rng *rand.Rand) float64 {
	return d.mean + rng.NormFloat64()*d.sd
}

var penguinProfiles = []penguinProfile{
	{
		species:       "Adelie",
		islands:       []string{"Torgersen", "Biscoe", "Dream"},
		billLength:    normal{38.8, 2.7},
		billDepth:     normal{18.3, 1.2},
		flipperLength: normal{190, 6.5},
		bodyMass:      normal{3700, 460},
	},
	{
		species:       "Chinstrap",
		islands:       []string{"Dream"},
		billLength:    normal{48.8, 3.3},
		billDepth:     normal{18.4, 1.1},
		flipperLength: normal{196, 7.1},
		bodyMass:      normal{3733, 384},
	},
	{
		species:       "Gentoo",
		islands:       []string{"Biscoe"},
		billLength:    normal{47.5, 3.1},
		billDepth:     normal{15.0, 1.0},
		flipperLength: normal{217, 6.5},
		bodyMass:      normal{5076, 504},
	},
}

// GeneratePenguins returns n synthetic penguin measurements drawn from
// per-species normal distributions.
func GeneratePenguins(n int, rng *rand.Rand) *Table {
	columns := []string{
		ColSpecies, ColIsland, ColBillLength, ColBillDepth,
		ColFlipperLength, ColBodyMass, ColSex,
	}
	rows := make([][]string, n)
	for i := range n {
		p := penguinProfiles[rng.Intn(len(penguinProfiles))]
		rows[i] = []string{
			p.species,
			p.islands[rng.Intn(len(p.islands))],
			formatFloat(p.billLength.sample(rng), 1),
			formatFloat(p.billDepth.sample(rng), 1),
			formatFloat(p.flipperLength.sample(rng), 0),
			formatFloat(p.bodyMass.sample(rng), 0),
			Genders[rng.Intn(len(Genders))],
		}
	}
	return &Table{Columns: columns, Rows: rows, index: indexOf(columns)}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func indexOf(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	return index
}
