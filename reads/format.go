package reads

import (
	"github.com/exascience/cortex/internal"
	"github.com/exascience/cortex/seqio"
)

// formatFasta renders rec as a two-line FASTA record, appended to a
// buffer borrowed from internal's byte-buffer pool -- Writer.Write
// returns it once the bytes are copied to the underlying stream.
func formatFasta(rec *seqio.Record) []byte {
	buf := internal.ReserveByteBuffer()
	buf = append(buf, '>')
	buf = append(buf, rec.Name...)
	buf = append(buf, '\n')
	buf = append(buf, rec.Seq...)
	buf = append(buf, '\n')
	return buf
}

// placeholderQual is substituted for FASTQ output when rec carries no
// quality line of its own (it was decoded from FASTA, or its quality
// line's length doesn't match its sequence), the same "no real
// quality available" situation ctx_reads.c's own FASTA-sourced reads
// are in -- 'I' is Phred+33 for Q40, the common "no information but
// plausible" filler.
const placeholderQualByte = 'I'

// formatFastq renders rec as a four-line FASTQ record, from the same
// buffer pool formatFasta uses.
func formatFastq(rec *seqio.Record) []byte {
	buf := internal.ReserveByteBuffer()
	buf = append(buf, '@')
	buf = append(buf, rec.Name...)
	buf = append(buf, '\n')
	buf = append(buf, rec.Seq...)
	buf = append(buf, '\n', '+', '\n')
	if len(rec.Qual) == len(rec.Seq) {
		buf = append(buf, rec.Qual...)
	} else {
		for i := 0; i < len(rec.Seq); i++ {
			buf = append(buf, placeholderQualByte)
		}
	}
	buf = append(buf, '\n')
	return buf
}
