// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package querycache

import (
	"encoding/binary"
	"os"

	"github.com/nki-avl/screenkit/internal/errs"
	"github.com/nki-avl/screenkit/internal/ipanalysis"
	"github.com/nki-avl/screenkit/internal/slanalysis"
	"github.com/nki-avl/screenkit/internal/transcript"
)

// ipSlabEntry is the fixed-size, on-disk record for one gene's IP/PA
// row entry: pv, fcpv, mi, low, high (§4.8/§6's cache slab format).
type ipSlabEntry struct {
	PV, FCPV, MI float64
	Low, High    int64
}

const ipSlabEntrySize = 8*3 + 8*2

// slReplicateSlabEntry is one replicate's sub-entry within an
// slSlabEntry.
type slReplicateSlabEntry struct {
	BinomFDR                              float64
	RefPV, RefFCPV                        [4]float64
	Sense, AntiSense                      uint32
	SenseNormalized, AntiSenseNormalized   uint32
}

const slReplicateSlabEntrySize = 8 + 8*4 + 8*4 + 4*4

// slSlabEntry is the fixed-size, on-disk record for one gene's SL row:
// odds_ratio, control_binom plus four replicate sub-entries, per
// §4.8/§6.
type slSlabEntry struct {
	OddsRatio, SenseRatio, ControlBinom, ControlSenseRatio float64
	Significant                                            uint8
	_                                                       [7]uint8
	Replicates                                              [4]slReplicateSlabEntry
}

const slSlabEntrySize = 8*4 + 1 + 7 + 4*slReplicateSlabEntrySize

func writeIPSlab(path string, points []ipanalysis.DataPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.IOError, "querycache.writeIPSlab", err)
	}
	defer f.Close()
	for _, p := range points {
		e := ipSlabEntry{PV: p.PV, FCPV: p.FCPV, MI: p.MI, Low: p.Low, High: p.High}
		if err := binary.Write(f, binary.BigEndian, &e); err != nil {
			return errs.New(errs.IOError, "querycache.writeIPSlab", err)
		}
	}
	return nil
}

func readIPSlab(path string, ts []*transcript.Transcript) ([]ipanalysis.DataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IOError, "querycache.readIPSlab", err)
	}
	defer f.Close()

	points := make([]ipanalysis.DataPoint, len(ts))
	for i, t := range ts {
		var e ipSlabEntry
		if err := binary.Read(f, binary.BigEndian, &e); err != nil {
			return nil, errs.New(errs.IOError, "querycache.readIPSlab", err)
		}
		points[i] = ipanalysis.DataPoint{
			Gene: t.GeneName,
			PV:   e.PV, FCPV: e.FCPV, MI: e.MI,
			Low: e.Low, High: e.High,
		}
	}
	return points, nil
}

func writeSLSlab(path string, points []slanalysis.DataPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.IOError, "querycache.writeSLSlab", err)
	}
	defer f.Close()
	for _, p := range points {
		var e slSlabEntry
		e.OddsRatio = p.OddsRatio
		e.SenseRatio = p.SenseRatio
		e.ControlBinom = p.ControlBinom
		e.ControlSenseRatio = p.ControlSenseRatio
		if p.Significant {
			e.Significant = 1
		}
		for r := 0; r < 4 && r < len(p.Replicates); r++ {
			rep := p.Replicates[r]
			e.Replicates[r] = slReplicateSlabEntry{
				BinomFDR:            rep.BinomFDR,
				RefPV:               rep.RefPV,
				RefFCPV:             rep.RefFCPV,
				Sense:               rep.Sense,
				AntiSense:           rep.AntiSense,
				SenseNormalized:     rep.SenseNormalized,
				AntiSenseNormalized: rep.AntiSenseNormalized,
			}
		}
		if err := binary.Write(f, binary.BigEndian, &e); err != nil {
			return errs.New(errs.IOError, "querycache.writeSLSlab", err)
		}
	}
	return nil
}

func readSLSlab(path string, ts []*transcript.Transcript) ([]slanalysis.DataPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IOError, "querycache.readSLSlab", err)
	}
	defer f.Close()

	points := make([]slanalysis.DataPoint, len(ts))
	for i, t := range ts {
		var e slSlabEntry
		if err := binary.Read(f, binary.BigEndian, &e); err != nil {
			return nil, errs.New(errs.IOError, "querycache.readSLSlab", err)
		}
		dp := slanalysis.DataPoint{
			Gene:              t.GeneName,
			OddsRatio:         e.OddsRatio,
			SenseRatio:        e.SenseRatio,
			ControlBinom:      e.ControlBinom,
			ControlSenseRatio: e.ControlSenseRatio,
			Significant:       e.Significant != 0,
			Replicates:        make([]slanalysis.Replicate, 4),
		}
		for r := 0; r < 4; r++ {
			re := e.Replicates[r]
			dp.Replicates[r] = slanalysis.Replicate{
				BinomFDR:            re.BinomFDR,
				RefPV:               re.RefPV,
				RefFCPV:             re.RefFCPV,
				Sense:               re.Sense,
				AntiSense:           re.AntiSense,
				SenseNormalized:     re.SenseNormalized,
				AntiSenseNormalized: re.AntiSenseNormalized,
			}
		}
		points[i] = dp
	}
	return points, nil
}
