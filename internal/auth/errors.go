package auth

import (
	"errors"
	"strings"
)

// Backend error codes surfaced to clients.
const (
	CodeEmailExists  = "email-already-exists"
	CodeWeakPassword = "weak-password"
	CodeUserNotFound = "user-not-found"
)

var (
	ErrEmailExists  = errors.New(CodeEmailExists)
	ErrWeakPassword = errors.New(CodeWeakPassword)
	ErrUserNotFound = errors.New(CodeUserNotFound)
)

// DefaultLanguage is used when the client sends no supported language.
const DefaultLanguage = "fr"

const genericKey = "generic"

var messages = map[string]map[string]string{
	"fr": {
		CodeEmailExists:  "Cette adresse e-mail est déjà utilisée.",
		CodeWeakPassword: "Le mot de passe est trop faible (8 caractères minimum, lettres et chiffres).",
		CodeUserNotFound: "Utilisateur introuvable.",
		genericKey:       "Une erreur est survenue. Veuillez réessayer.",
	},
	"en": {
		CodeEmailExists:  "This email address is already in use.",
		CodeWeakPassword: "The password is too weak (at least 8 characters, letters and digits).",
		CodeUserNotFound: "User not found.",
		genericKey:       "Something went wrong. Please try again.",
	},
}

// Code returns the backend code carried by err, or "" when err is not a known
// backend failure.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmailExists):
		return CodeEmailExists
	case errors.Is(err, ErrWeakPassword):
		return CodeWeakPassword
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	default:
		return ""
	}
}

// Localize returns the user-facing message for code in lang. Unknown codes get
// the generic message; unknown languages fall back to DefaultLanguage.
func Localize(code, lang string) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[DefaultLanguage]
	}
	if msg, ok := table[code]; ok {
		return msg
	}
	return table[genericKey]
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		base := strings.SplitN(tag, "-", 2)[0]
		if _, ok := messages[base]; ok {
			return base
		}
	}
	return DefaultLanguage
}
