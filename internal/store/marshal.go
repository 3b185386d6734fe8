package store

import (
	"strconv"
	"time"

	"github.com/roach88/mshdb/internal/cell"
	"github.com/roach88/mshdb/internal/errors"
)

// marshalCell converts a non-empty cell to its kind tag and TEXT value.
// Numbers use the shortest round-trip form so reads are exact.
func marshalCell(v cell.Value) (kind, text string, err error) {
	switch val := cell.OrEmpty(v).(type) {
	case cell.Number:
		f := float64(val)
		if !cell.Finite(f) {
			return "", "", errors.Newf("marshal cell: non-finite number %v", f)
		}
		return cell.KindNumber.String(), strconv.FormatFloat(f, 'g', -1, 64), nil
	case cell.Text:
		return cell.KindText.String(), string(val), nil
	case cell.Date:
		return cell.KindDate.String(), val.String(), nil
	default:
		return "", "", errors.Newf("marshal cell: unsupported %T", v)
	}
}

// unmarshalCell parses a stored kind tag and TEXT value.
func unmarshalCell(kind, text string) (cell.Value, error) {
	k, err := cell.ParseKind(kind)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshal cell")
	}
	switch k {
	case cell.KindNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "unmarshal cell: number %q", text)
		}
		return cell.Num(f), nil
	case cell.KindText:
		return cell.Str(text), nil
	case cell.KindDate:
		t, err := time.Parse(cell.DateLayout, text)
		if err != nil {
			return nil, errors.Wrapf(err, "unmarshal cell: date %q", text)
		}
		return cell.DateOf(t), nil
	default:
		return nil, errors.Newf("unmarshal cell: kind %q holds no value", kind)
	}
}
