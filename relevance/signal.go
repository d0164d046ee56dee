// ABOUTME: This file implements the fast pre-extraction title signal filter
// ABOUTME: A title must carry at least one unambiguous heat word to be worth extracting
package relevance

import (
	"log/slog"
	"regexp"
	"strings"

	"heat-collector/models"
)

// heatSignals are words that unambiguously point at heat or temperature
// content, across the collected languages. Generic words like "alert" or
// "school closed" are left out because they match non-heat stories. The
// trailing space on "loo " keeps it from matching "look" or "loop".
var heatSignals = []string{
	// English
	"heat", "heatwave", "heat wave", "hot", "scorching", "sweltering",
	"sunstroke", "sun stroke", "heatstroke", "heat stroke",
	"temperature", "mercury", "celsius", "loo ",
	"drought", "water crisis", "water shortage",

	// Hindi
	"गर्मी", "लू", "तापमान", "पारा", "सूर्याघात", "तापाघात",
	"हीट", "धूप", "उष्ण", "ग्रीष्म",

	// Tamil
	"வெப்பம்", "வெப்ப அலை", "கோடை", "வெயில்",

	// Telugu
	"వేడి", "ఉష్ణ", "ఎండ", "సూర్యాఘాతం",

	// Bengali
	"গরম", "তাপ", "তাপমাত্রা", "দাবদাহ", "লু",

	// Marathi
	"उष्णता", "उन्हाळा", "तापमान", "ऊन",

	// Gujarati
	"ગરમી", "તાપમાન", "લૂ", "ઉષ્ણ",

	// Kannada
	"ಬಿಸಿ", "ಉಷ್ಣ", "ತಾಪಮಾನ", "ಬಿಸಿಗಾಳಿ",

	// Malayalam
	"ചൂട്", "ഉഷ്ണ", "താപനില", "വെയിൽ",

	// Odia
	"ଗରମ", "ତାପମାତ୍ରା", "ଉଷ୍ଣ",

	// Punjabi
	"ਗਰਮੀ", "ਤਾਪਮਾਨ", "ਲੂ",

	// Assamese
	"গৰম", "তাপমাত্ৰা",

	// Urdu
	"گرمی", "لو", "ہیٹ", "شدید گرمی",

	// Nepali
	"गर्मी", "तापक्रम", "लू",
}

var heatSignalPattern = compileSignalPattern(heatSignals)

func compileSignalPattern(signals []string) *regexp.Regexp {
	quoted := make([]string, len(signals))
	for i, signal := range signals {
		quoted[i] = regexp.QuoteMeta(signal)
	}
	return regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
}

// TitleHasHeatSignal reports whether the title contains at least one
// heat-signal word.
func TitleHasHeatSignal(title string) bool {
	return heatSignalPattern.MatchString(title)
}

// FilterByTitleSignal keeps only refs whose titles carry a heat signal.
// It runs before extraction and before any LLM check, on titles alone.
func FilterByTitleSignal(refs []models.ArticleRef, logger *slog.Logger) []models.ArticleRef {
	relevant := make([]models.ArticleRef, 0, len(refs))
	for _, ref := range refs {
		if TitleHasHeatSignal(ref.Title) {
			relevant = append(relevant, ref)
		}
	}
	logger.Info("title signal filter",
		"before", len(refs),
		"after", len(relevant),
		"dropped", len(refs)-len(relevant))
	return relevant
}
