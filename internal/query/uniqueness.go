// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"math"

	"github.com/nki-avl/screenkit/internal/querycache"
	"github.com/nki-avl/screenkit/internal/screenstore"
)

// UniquenessPoint is one significant gene's cross-screen uniqueness
// colour (§4.10's uniqueness).
type UniquenessPoint struct {
	Gene   string
	Count  int // number of other non-ignored screens also calling this gene significant
	Colour int // 0..10, 0 being most unique
}

// Uniqueness finds screen's significant genes and, for each, counts
// how many other screens of the cache's type (excluding names in
// ignored) also call it significant, then derives a 0..10 colour from
// the count distribution across those genes via
// colour = ceil(10 * (pow(count-cmin, 0.001) - 1) / (pow(cmax-cmin, 0.001) - 1)).
// For IP/PA, singleSided restricts "also significant" to the same
// direction of effect as screen's own call (mi on the same side of 1)
// rather than either direction. For SL, significance is each row's
// Significant flag; pvCutOff and singleSided are not used.
func Uniqueness(c *querycache.Cache, screen string, pvCutOff float64, singleSided bool, ignored map[string]bool) []UniquenessPoint {
	if c.Params.ScreenType == screenstore.SL {
		return uniquenessSL(c, screen, ignored)
	}
	return uniquenessIP(c, screen, pvCutOff, singleSided, ignored)
}

// hitCount is an intermediate (gene, significant-elsewhere count) pair
// shared by the IP/PA and SL uniqueness passes before colourize turns
// the counts into 0..10 colours.
type hitCount struct {
	gene  string
	count int
}

func uniquenessIP(c *querycache.Cache, screen string, pvCutOff float64, singleSided bool, ignored map[string]bool) []UniquenessPoint {
	target, ok := c.IPPoints(screen)
	if !ok {
		return nil
	}

	var hits []hitCount
	for i, p := range target {
		if p.FCPV > pvCutOff || (p.Low == 0 && p.High == 0) {
			continue
		}
		count := 0
		for _, other := range c.Screens {
			if other == screen || ignored[other] {
				continue
			}
			rows, ok := c.IPPoints(other)
			if !ok {
				continue
			}
			op := rows[i]
			if op.FCPV > pvCutOff {
				continue
			}
			if singleSided && !sameSign(op.MI, p.MI) {
				continue
			}
			count++
		}
		hits = append(hits, hitCount{gene: p.Gene, count: count})
	}
	return colourize(hits)
}

func uniquenessSL(c *querycache.Cache, screen string, ignored map[string]bool) []UniquenessPoint {
	target, ok := c.SLPoints(screen)
	if !ok {
		return nil
	}

	var hits []hitCount
	for i, p := range target {
		if !p.Significant {
			continue
		}
		count := 0
		for _, other := range c.Screens {
			if other == screen || ignored[other] {
				continue
			}
			rows, ok := c.SLPoints(other)
			if !ok {
				continue
			}
			if rows[i].Significant {
				count++
			}
		}
		hits = append(hits, hitCount{gene: p.Gene, count: count})
	}
	return colourize(hits)
}

func colourize(hits []hitCount) []UniquenessPoint {
	if len(hits) == 0 {
		return nil
	}
	cmin, cmax := hits[0].count, hits[0].count
	for _, h := range hits {
		if h.count < cmin {
			cmin = h.count
		}
		if h.count > cmax {
			cmax = h.count
		}
	}

	out := make([]UniquenessPoint, len(hits))
	for i, h := range hits {
		out[i] = UniquenessPoint{Gene: h.gene, Count: h.count, Colour: colourOf(h.count, cmin, cmax)}
	}
	return out
}

func colourOf(count, cmin, cmax int) int {
	if cmax <= cmin || count <= cmin {
		return 0
	}
	if count >= cmax {
		return 10
	}
	num := math.Pow(float64(count-cmin), 0.001) - 1
	den := math.Pow(float64(cmax-cmin), 0.001) - 1
	return int(math.Ceil(10 * num / den))
}
