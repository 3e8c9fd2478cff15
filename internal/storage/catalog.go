package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"advent/internal/models"
)

// DefaultCatalog is the prize list seeded into an empty database.
func DefaultCatalog() []models.PrizeSpec {
	return []models.PrizeSpec{
		{Kind: models.KindVoucher, Title: "Frühstück im Bett", Description: "Du bekommst ein liebevoll zubereitetes Frühstück direkt ans Bett serviert! 🍳", Emoji: "🍳", Color: "#FFD700"},
		{Kind: models.KindChallenge, Title: "Kompliment-Tag", Description: "Mache heute 3 Menschen ein ehrliches Kompliment!", Emoji: "💝", Color: "#FF69B4"},
		{Kind: models.KindVoucher, Title: "Wellness-Abend", Description: "Ein entspannender Wellness-Abend mit Gesichtsmaske und Tee! 🧖‍♀️", Emoji: "🧖‍♀️", Color: "#87CEEB"},
		{Kind: models.KindVoucher, Title: "Kinoabend", Description: "Gemeinsamer Filmabend mit Popcorn und Snacks! 🎬", Emoji: "🎬", Color: "#DDA0DD"},
		{Kind: models.KindVoucher, Title: "Lieblingsessen", Description: "Dein absolutes Lieblingsessen wird für dich gekocht! 🍲", Emoji: "🍲", Color: "#FFA07A"},
		{Kind: models.KindVoucher, Title: "Kuschel-Coupon", Description: "Einlösbar für eine extra lange Kuschelrunde! 🤗", Emoji: "🤗", Color: "#FFB6C1"},
		{Kind: models.KindVoucher, Title: "Massage", Description: "Eine entspannende Schulter- und Rückenmassage! 💆‍♀️", Emoji: "💆‍♀️", Color: "#B0E0E6"},
		{Kind: models.KindVoucher, Title: "Café-Besuch", Description: "Gemeinsamer Besuch in deinem Lieblingscafé! ☕", Emoji: "☕", Color: "#D2B48C"},
		{Kind: models.KindVoucher, Title: "Haushalts-Frei", Description: "Heute wird der komplette Haushalt für dich erledigt! 🏠", Emoji: "🏠", Color: "#98D8C8"},
		{Kind: models.KindVoucher, Title: "Spieleabend", Description: "Gesellschaftsspiel-Abend nach deiner Wahl! 🎲", Emoji: "🎲", Color: "#ADD8E6"},
		{Kind: models.KindChallenge, Title: "Foto-Challenge", Description: "Mache heute ein Foto von etwas, das dich glücklich macht!", Emoji: "📸", Color: "#98FB98"},
		{Kind: models.KindChallenge, Title: "Dankbarkeit", Description: "Schreibe 5 Dinge auf, für die du heute dankbar bist!", Emoji: "🙏", Color: "#F0E68C"},
	}
}

type catalogFile struct {
	Prizes []models.PrizeSpec `yaml:"prizes"`
}

// ParseCatalog decodes a YAML catalog of the form
//
//	prizes:
//	  - type: voucher
//	    title: Kinoabend
//	    description: ...
//	    emoji: 🎬
//	    color: "#DDA0DD"
func ParseCatalog(data []byte) ([]models.PrizeSpec, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Prizes) == 0 {
		return nil, fmt.Errorf("parse catalog: no prizes defined")
	}
	for i, spec := range f.Prizes {
		if err := ValidateSpec(spec); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i+1, err)
		}
	}
	return f.Prizes, nil
}

// LoadCatalog reads the catalog at path, or returns DefaultCatalog when path
// is empty.
func LoadCatalog(path string) ([]models.PrizeSpec, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}
