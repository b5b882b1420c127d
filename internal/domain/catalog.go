package domain

// CategoryOther is used when neither the parser nor the catalog knows the exercise.
const CategoryOther = "Outros"

// MuscleGroup is a named group of catalog exercises.
type MuscleGroup struct {
	Group     string   `json:"group"`
	Exercises []string `json:"exercises"`
}

// Catalog is the built-in list of common gym exercises, grouped by muscle group.
var Catalog = []MuscleGroup{
	{
		Group: "Peito",
		Exercises: []string{
			"Supino Reto",
			"Supino Inclinado",
			"Supino Declinado",
			"Crucifixo Reto",
			"Crucifixo Inclinado",
			"Crucifixo Declinado",
			"Cross Over",
			"Peck Deck (Máquina)",
			"Dips (Paralelas para Peito)",
			"Flexões de Braço",
		},
	},
	{
		Group: "Costas",
		Exercises: []string{
			"Barra Fixa",
			"Pulldown (Puxada na Polia)",
			"Remada Curvada",
			"Remada Unilateral",
			"Remada Máquina",
			"Pull Over",
			"Rack Pull",
			"Deadlift (Levantamento Terra)",
			"Remada Cavalinho",
		},
	},
	{
		Group: "Ombros",
		Exercises: []string{
			"Desenvolvimento Militar",
			"Desenvolvimento Arnold",
			"Elevação Lateral",
			"Elevação Frontal",
			"Crucifixo Reverso",
			"Face Pull",
			"Encolhimento (Trapézio)",
		},
	},
	{
		Group: "Bíceps",
		Exercises: []string{
			"Rosca Direta",
			"Rosca Martelo",
			"Rosca Alternada",
			"Rosca Concentrada",
			"Rosca Scott",
			"Rosca 21",
			"Rosca Reversa",
		},
	},
	{
		Group: "Tríceps",
		Exercises: []string{
			"Tríceps Pulley",
			"Tríceps Corda",
			"Tríceps Francês",
			"Tríceps Coice",
			"Fundos em Banco",
			"Dips nas Paralelas",
			"Supino Fechado",
		},
	},
	{
		Group: "Pernas",
		Exercises: []string{
			"Agachamento Livre",
			"Agachamento Hack",
			"Leg Press",
			"Cadeira Extensora",
			"Mesa Flexora",
			"Cadeira Flexora",
			"Afundo",
			"Stiff",
			"Bom Dia",
			"Panturrilha Sentado",
			"Panturrilha em Pé",
			"Elevação de Gêmeos no Leg Press",
		},
	},
	{
		Group: "Abdômen",
		Exercises: []string{
			"Abdominal Infra",
			"Abdominal Supra",
			"Abdominal Oblíquo",
			"Prancha",
			"Dragon Flag",
			"Hanging Leg Raises",
			"Abdominal na Roda",
		},
	},
}

var catalogIndex = buildCatalogIndex()

func buildCatalogIndex() map[string]string {
	idx := make(map[string]string)
	for _, g := range Catalog {
		for _, ex := range g.Exercises {
			idx[NormalizeExerciseName(ex)] = g.Group
		}
	}
	return idx
}

// CatalogGroups lists the muscle group names in catalog order.
func CatalogGroups() []string {
	groups := make([]string, len(Catalog))
	for i, g := range Catalog {
		groups[i] = g.Group
	}
	return groups
}

// CategoryFor returns the catalog group of an exercise. Exact (normalized)
// matches win; otherwise the longest catalog name the exercise starts with,
// so "Supino Inclinado 30°(H)" resolves to "Peito".
func CategoryFor(exercise string) (string, bool) {
	key := NormalizeExerciseName(exercise)
	if group, ok := catalogIndex[key]; ok {
		return group, true
	}
	best, bestLen := "", 0
	for name, group := range catalogIndex {
		if len(name) > bestLen && len(key) > len(name) && key[:len(name)] == name && key[len(name)] == ' ' {
			best, bestLen = group, len(name)
		}
	}
	return best, bestLen > 0
}
