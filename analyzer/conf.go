// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//   This file is part of UDSEARCH.
//
//  UDSEARCH is free software: you can redistribute it and/or modify
//  it under the terms of the GNU General Public License as published by
//  the Free Software Foundation, either version 3 of the License, or
//  (at your option) any later version.
//
//  UDSEARCH is distributed in the hope that it will be useful,
//  but WITHOUT ANY WARRANTY; without even the implied warranty of
//  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//  GNU General Public License for more details.
//
//  You should have received a copy of the GNU General Public License
//  along with UDSEARCH.  If not, see <https://www.gnu.org/licenses/>.

package analyzer

import (
	"context"
	"fmt"
	"udsearch/merror"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/rs/zerolog/log"
)

const (
	BackendUDPipe = "udpipe"
	BackendStanza = "stanza"

	dfltRequestTimeoutSecs  = 60
	dfltIdleConnTimeoutSecs = 60
)

var (
	availableBackends = []string{BackendUDPipe, BackendStanza}
)

type UDPipeConf struct {

	// URL is a base URL of a UDPipe REST service,
	// e.g. `http://localhost:8001` or
	// `https://lindat.mff.cuni.cz/services/udpipe/api`
	URL string `json:"url"`

	// Model is a model name as known to the service
	// (e.g. `russian-syntagrus-ud-2.0-170801`). Empty value
	// means the service default model.
	Model string `json:"model"`

	RequestTimeoutSecs  int `json:"requestTimeoutSecs"`
	IdleConnTimeoutSecs int `json:"idleConnTimeoutSecs"`
}

type StanzaConf struct {

	// Command is an executable reading plain text on its stdin and
	// writing the Stanza document dictionary (`Document.to_dict()`)
	// as JSON to its stdout.
	Command string   `json:"command"`
	Args    []string `json:"args"`

	RequestTimeoutSecs int `json:"requestTimeoutSecs"`
}

type Conf struct {
	Backend string      `json:"backend"`
	UDPipe  *UDPipeConf `json:"udpipe"`
	Stanza  *StanzaConf `json:"stanza"`
}

func (conf *Conf) ValidateAndDefaults(confContext string) error {
	if conf == nil {
		return fmt.Errorf("missing configuration section `%s`", confContext)
	}
	if !collections.SliceContains(availableBackends, conf.Backend) {
		return fmt.Errorf("invalid `%s.backend` value: %s", confContext, conf.Backend)
	}
	switch conf.Backend {
	case BackendUDPipe:
		if conf.UDPipe == nil || conf.UDPipe.URL == "" {
			return fmt.Errorf("missing `%s.udpipe.url`", confContext)
		}
		if conf.UDPipe.RequestTimeoutSecs == 0 {
			conf.UDPipe.RequestTimeoutSecs = dfltRequestTimeoutSecs
			log.Warn().
				Int("value", dfltRequestTimeoutSecs).
				Msgf("%s.udpipe.requestTimeoutSecs not set, using default", confContext)
		}
		if conf.UDPipe.IdleConnTimeoutSecs == 0 {
			conf.UDPipe.IdleConnTimeoutSecs = dfltIdleConnTimeoutSecs
		}
	case BackendStanza:
		if conf.Stanza == nil || conf.Stanza.Command == "" {
			return fmt.Errorf("missing `%s.stanza.command`", confContext)
		}
		if conf.Stanza.RequestTimeoutSecs == 0 {
			conf.Stanza.RequestTimeoutSecs = dfltRequestTimeoutSecs
			log.Warn().
				Int("value", dfltRequestTimeoutSecs).
				Msgf("%s.stanza.requestTimeoutSecs not set, using default", confContext)
		}
	}
	return nil
}

// New bootstraps an analyzer based on the provided configuration.
// Any problem is reported as merror.AnnotationError of the
// BootstrapFailure kind.
func New(ctx context.Context, conf *Conf) (Analyzer, error) {
	if err := conf.ValidateAndDefaults("analyzer"); err != nil {
		return nil, merror.AnnotationError{
			Kind:  merror.BootstrapFailure,
			Cause: err,
		}
	}
	switch conf.Backend {
	case BackendUDPipe:
		an, err := NewUDPipe(ctx, conf.UDPipe)
		if err != nil {
			return nil, err
		}
		return an, nil
	case BackendStanza:
		an, err := NewStanza(conf.Stanza)
		if err != nil {
			return nil, err
		}
		return an, nil
	}
	// cannot happen after validation
	return nil, merror.AnnotationError{
		Kind:   merror.BootstrapFailure,
		Reason: fmt.Sprintf("unknown backend %s", conf.Backend),
	}
}
