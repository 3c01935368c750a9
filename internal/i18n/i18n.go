// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.

// Package i18n translates the operator-facing messages printed by the CLI.
// Translations are YAML files under locales/ embedded into the binary.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/genzdna/ccprobe/internal/logging"
)

//go:embed locales/*.yaml
var embedded embed.FS

// localeFS is read by Init; tests point it at other catalogs.
var localeFS fs.FS = embedded

var (
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string
)

// Init loads every embedded locale and selects lang. Unknown languages fall
// back to English message by message.
func Init(l string) {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		logging.Warnf("could not list locales: %v", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := fs.ReadFile(localeFS, "locales/"+f.Name())
		if err != nil {
			logging.Warnf("could not read locale %s: %v", f.Name(), err)
			continue
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			logging.Warnf("could not parse locale %s: %v", f.Name(), err)
		}
	}

	lang = l
	localizer = i18n.NewLocalizer(bundle, l, language.English.String())
}

// T translates messageID and, when args are given, formats the result with
// fmt.Sprintf. A missing ID is returned as-is.
func T(messageID string, args ...any) string {
	if localizer == nil {
		Init("en")
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		msg = messageID
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func GetLang() string {
	if localizer == nil {
		Init("en")
	}
	return lang
}

// AvailableLocales lists the language tags shipped in locales/.
func AvailableLocales() []string {
	files, _ := fs.ReadDir(localeFS, "locales")
	var out []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		out = append(out, strings.TrimSuffix(f.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}
