package tts

// pollyVoiceNames is the fixed catalog reported for the polly method.
// Synthesis for that method happens on the face server; this service only
// reports the names.
var pollyVoiceNames = []string{
	"Zeina", "Hala", "Zayd", "Lisa", "Arlet", "Hiujin", "Zhiyu", "Naja",
	"Mads", "Sofie", "Laura", "Lotte", "Ruben", "Nicole", "Olivia",
	"Russell", "Amy", "Emma", "Brian", "Arthur", "Aditi", "Raveena",
	"Kajal", "Niamh", "Aria", "Ayanda", "Danielle", "Gregory", "Ivy",
	"Joanna", "Kendra", "Kimberly", "Salli", "Joey", "Justin", "Kevin",
	"Matthew", "Ruth", "Stephen", "Geraint", "Suvi", "Celine", "Léa",
	"Mathieu", "Rémi", "Isabelle", "Chantal", "Gabrielle", "Liam",
	"Marlene", "Vicki", "Hans", "Daniel", "Hannah", "Aditi", "Kajal",
	"Dora", "Karl", "Carla", "Bianca", "Giorgio", "Adriano", "Mizuki",
	"Takumi", "Kazuha", "Tomoko", "Seoyeon", "Liv", "Ida", "Ewa", "Maja",
	"Jacek", "Jan", "Ola", "Camila", "Vitoria", "Ricardo", "Thiago",
	"Ines", "Cristiano", "Carmen", "Tatyana", "Maxim", "Conchita",
	"Lucia", "Enrique", "Sergio", "Mia", "Andrés", "Lupe", "Penelope",
	"Miguel", "Pedro", "Astrid", "Elin", "Filiz", "Burcu", "Gwyneth",
}

// PollyVoices returns the polly voice catalog.
func PollyVoices() []Voice {
	voices := make([]Voice, len(pollyVoiceNames))
	for i, name := range pollyVoiceNames {
		voices[i] = Voice{ID: name, Name: name}
	}
	return voices
}
