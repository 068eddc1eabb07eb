// Package stream holds the vendor-neutral pieces of the streaming adapter:
// the canonical progress Event, the incremental LineSplitter that rebuilds
// JSONL line boundaries from arbitrarily chunked subprocess output, and the
// display helpers shared by every vendor normalizer.
//
// A LineSplitter is owned by exactly one subprocess invocation. It keeps no
// protocol knowledge; it only guarantees that the handler sees the same
// sequence of lines no matter how the bytes were chunked:
//
//	sp := stream.NewLineSplitter(func(line string) error {
//	    if ev := a.Normalize(line, opts); ev != nil {
//	        sink(*ev)
//	    }
//	    return nil
//	})
//	io.Copy(sp, stdout)
//	sp.Flush()
package stream
