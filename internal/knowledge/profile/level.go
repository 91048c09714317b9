// Package profile reads the user's study level and the follow-up cues of a
// conversation. It never touches the network.
package profile

import (
	"regexp"
	"strings"
)

// Level is a coarse study level.
type Level string

const (
	LevelUnknown      Level = ""
	LevelBac          Level = "bac"
	LevelBac2         Level = "bac+2"
	LevelBac3         Level = "bac+3"
	LevelBac4         Level = "bac+4"
	LevelBac5         Level = "bac+5"
	LevelReconversion Level = "reconversion"
	LevelHighSchool   Level = "lycee"
)

type levelTerms struct {
	level Level
	re    *regexp.Regexp
}

// Checked in order; the first level with a matching term wins.
var levels = []levelTerms{
	{LevelBac, terms("bac", "bac+0", "baccalauréat", "terminale", "stmg", "sti2d", "stl", "st2s",
		"bac s", "bac es", "bac l", "bac pro", "bac techno")},
	{LevelBac2, terms("bac+2", "bts", "dut", "deug", "l2", "licence 2")},
	{LevelBac3, terms("bac+3", "licence", "bachelor", "l3", "licence 3")},
	{LevelBac4, terms("bac+4", "m1", "master 1", "maîtrise")},
	{LevelBac5, terms("bac+5", "m2", "master 2", "ingénieur", "diplôme d'ingénieur")},
	{LevelReconversion, terms("reconversion", "changement de carrière", "réorientation",
		"salarié", "demandeur d'emploi")},
	{LevelHighSchool, terms("lycée", "lyceen", "lycéen", "seconde", "première", "1ère", "2nde")},
}

// terms matches any of words as a whole token. A trailing "+" counts as part
// of the token so "bac" does not match "bac+2".
func terms(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}+])`)
}

// Turn is one conversation message.
type Turn struct {
	Sender  string
	Text    string
	IsError bool
}

// Sender values.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// DetectLevel scans message and every user turn of history.
func DetectLevel(message string, history []Turn) Level {
	var b strings.Builder
	b.WriteString(normalize(message))
	for _, t := range history {
		if t.Sender == SenderUser {
			b.WriteString(" ")
			b.WriteString(normalize(t.Text))
		}
	}
	return matchLevel(b.String())
}

func matchLevel(text string) Level {
	for _, l := range levels {
		if l.re.MatchString(text) {
			return l.level
		}
	}
	return LevelUnknown
}

func normalize(s string) string {
	return strings.NewReplacer("’", "'", " + ", "+", "bac +", "bac+").Replace(strings.ToLower(s))
}

// LevelContext is the instruction block for level. An unknown level asks
// the assistant to request it before recommending anything.
func LevelContext(level Level) string {
	switch level {
	case LevelUnknown:
		return "[INFO SYSTÈME: NIVEAU D'ÉTUDES INCONNU]\n" +
			"⚠️ Tu ne sais PAS encore quel niveau scolaire a l'utilisateur.\n" +
			"1. NE PROPOSE AUCUN CURSUS SPÉCIFIQUE (ni PGE, ni MSc...).\n" +
			"2. DEMANDE-LUI d'abord : 'Pour te conseiller au mieux, quel est ton niveau d'études actuel (Lycée, Bac+2, Reconversion...) ?'\n" +
			"3. N'invente pas un profil à l'utilisateur.\n"
	case LevelBac, LevelHighSchool:
		return "[INFO SYSTÈME: NIVEAU DÉTECTÉ = BAC/LYCÉE]\n" +
			"L'utilisateur est niveau Bac/Lycée. Propose UNIQUEMENT le 'Programme Grande École' (5 ans).\n"
	case LevelBac2, LevelBac3, LevelBac4, LevelBac5:
		return "[INFO SYSTÈME: NIVEAU DÉTECTÉ = " + strings.ToUpper(string(level)) + "]\n" +
			"⚠️ ATTENTION : L'utilisateur a déjà un diplôme supérieur (Bac+2/3/4/5).\n" +
			"1. S'il demande si le 'PGE' (Programme Grande École) est bien pour lui, CORRIGE-LE gentiment.\n" +
			"2. Ton objectif est de présenter les 'MSc Pro' (Spécialisation) ou l'Année Pré-MSc.\n"
	case LevelReconversion:
		return "[INFO SYSTÈME: NIVEAU DÉTECTÉ = RECONVERSION]\n" +
			"L'utilisateur veut changer de vie. Ne propose PAS le cursus étudiant classique (PGE).\n" +
			"Propose la 'Coding Academy' (Formation intensive pour adultes).\n"
	}
	return ""
}
