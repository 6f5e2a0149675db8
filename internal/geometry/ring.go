package geometry

import (
	"strconv"
	"strings"

	"github.com/ctessum/geom"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// ParseRing parses a GML-style coordinate string into a ring.
//
// Two layouts are accepted:
//   - comma-separated pairs divided by whitespace: "x1,y1 x2,y2 ..."
//   - a flat whitespace-separated list: "x1 y1 x2 y2 ..."
//
// A malformed vertex (unparsable numeral, missing ordinate, odd element
// count) is skipped and reported as a *model.FormatError; parsing always
// continues with the next token. ring is the ring index recorded in the
// reported errors.
func ParseRing(s string, ring int) (geom.Path, []error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return nil, nil
	}

	if strings.Contains(s, ",") {
		return parsePairs(tokens, ring)
	}
	return parseFlat(tokens, ring)
}

func parsePairs(tokens []string, ring int) (geom.Path, []error) {
	var (
		path geom.Path
		errs []error
	)
	for _, tok := range tokens {
		parts := strings.Split(tok, ",")
		// GML allows a third ordinate; it is ignored.
		if len(parts) < 2 || len(parts) > 3 {
			errs = append(errs, &model.FormatError{Ring: ring, Token: tok, Reason: "expected x,y pair"})
			continue
		}
		x, errX := strconv.ParseFloat(parts[0], 64)
		y, errY := strconv.ParseFloat(parts[1], 64)
		if errX != nil || errY != nil {
			errs = append(errs, &model.FormatError{Ring: ring, Token: tok, Reason: "unparsable numeral"})
			continue
		}
		path = append(path, geom.Point{X: x, Y: y})
	}
	return path, errs
}

func parseFlat(tokens []string, ring int) (geom.Path, []error) {
	var (
		path geom.Path
		errs []error
	)
	if len(tokens)%2 != 0 {
		errs = append(errs, &model.FormatError{
			Ring:   ring,
			Token:  tokens[len(tokens)-1],
			Reason: "odd number of coordinate values",
		})
		tokens = tokens[:len(tokens)-1]
	}
	for i := 0; i+1 < len(tokens); i += 2 {
		x, errX := strconv.ParseFloat(tokens[i], 64)
		y, errY := strconv.ParseFloat(tokens[i+1], 64)
		if errX != nil || errY != nil {
			errs = append(errs, &model.FormatError{
				Ring:   ring,
				Token:  tokens[i] + " " + tokens[i+1],
				Reason: "unparsable numeral",
			})
			continue
		}
		path = append(path, geom.Point{X: x, Y: y})
	}
	return path, errs
}
