package service

var demoFirstNames = [...]string{
	"Carlos", "María", "José", "Ana", "Luis", "Carmen", "Miguel", "Isabel",
	"Francisco", "Laura", "Diego", "Sofía", "Javier", "Lucía", "Antonio", "Patricia",
}

var demoLastNames = [...]string{
	"Rodríguez", "García", "Martínez", "López", "Hernández", "González", "Pérez", "Sánchez",
}

// DemoPlayerNames returns count distinct player names, clamped to the demo limits.
// 16 first names times 8 surnames keeps all 128 names unique.
func DemoPlayerNames(count int) []string {
	count = min(max(count, MinDemoPlayers), MaxDemoPlayers)

	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		first := demoFirstNames[i%len(demoFirstNames)]
		last := demoLastNames[(i/len(demoFirstNames))%len(demoLastNames)]
		names = append(names, first+" "+last)
	}
	return names
}
