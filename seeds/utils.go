package seeds

import (
	"fmt"
	"math/rand"
	"time"
)

var (
	indonesianFirstNames = []string{
		"Ahmad", "Budi", "Candra", "Dewi", "Eko", "Fitri", "Gita", "Hadi",
		"Indra", "Joko", "Kartika", "Lestari", "Made", "Nia", "Oki", "Putri",
		"Raden", "Siti", "Taufik", "Umar", "Vina", "Wawan", "Yudi", "Zainal",
	}

	indonesianLastNames = []string{
		"Santoso", "Wijaya", "Kusuma", "Pratama", "Saputra", "Permana", "Nugroho",
		"Sutanto", "Hidayat", "Raharjo", "Setiawan", "Wibowo", "Gunawan", "Susanto",
	}
)

// GenerateIndonesianName creates a realistic Indonesian driver name.
func GenerateIndonesianName() string {
	return fmt.Sprintf("%s %s",
		indonesianFirstNames[rand.Intn(len(indonesianFirstNames))],
		indonesianLastNames[rand.Intn(len(indonesianLastNames))],
	)
}

// GenerateSIM creates a placeholder SIM (driver's licence) number.
func GenerateSIM() string {
	return fmt.Sprintf("%04d-%04d-%04d", rand.Intn(10000), rand.Intn(10000), rand.Intn(10000))
}

// GenerateLicensePlate creates a realistic Jakarta-region plate.
func GenerateLicensePlate() string {
	number := 1000 + rand.Intn(9000)
	letters := []rune{'A' + rune(rand.Intn(26)), 'A' + rune(rand.Intn(26)), 'A' + rune(rand.Intn(26))}
	return fmt.Sprintf("B %d %c%c%c", number, letters[0], letters[1], letters[2])
}

// GeneratePhoneNumber creates a valid Indonesian mobile number.
func GeneratePhoneNumber() string {
	provider := []string{"812", "813", "821", "822", "852", "853"}
	return fmt.Sprintf("+62 %s-%04d-%04d", provider[rand.Intn(len(provider))], rand.Intn(10000), rand.Intn(10000))
}

// RandomFloat generates a random float between min and max.
func RandomFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}

// RandomPastTime generates a random timestamp within the last N days.
func RandomPastTime(daysAgo int) time.Time {
	return time.Now().AddDate(0, 0, -rand.Intn(daysAgo))
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
