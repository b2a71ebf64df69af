package synthesizer

import (
	"errors"
	"fmt"

	"resume-analyzer-go/internal/types"
)

// ErrUneditableField 不支持人工编辑的字段
var ErrUneditableField = errors.New("字段不支持人工编辑")

// ManualProvenanceMarker 人工编辑在冲突记录里的接管标记
const ManualProvenanceMarker = "manual"

// ApplyEdit 对档案应用一次人工编辑，纯函数，原档案不被修改
// 被编辑字段的置信度固定为1.0、来源标记为manual；
// 该字段此前的未裁决冲突被标记为已由人工接管，但记录本身保留作审计
func ApplyEdit(record types.ProfileRecord, field types.FieldKind, newValue string) (types.ProfileRecord, error) {
	out := record.Clone()

	edited := types.FieldValue{
		Value:      newValue,
		Confidence: 1.0,
		Provenance: types.ProvenanceManual,
		Resolved:   true,
	}

	switch field {
	case types.FieldName:
		out.Contact.Name = edited
	case types.FieldEmail:
		out.Contact.Email = edited
	case types.FieldPhone:
		out.Contact.Phone = edited
	case types.FieldLocation:
		out.Contact.Location = edited
	case types.FieldWebsite:
		out.Contact.Website = edited
	case types.FieldLinkedIn:
		out.Contact.LinkedIn = edited
	default:
		return record, fmt.Errorf("%w: %s", ErrUneditableField, field)
	}

	// 冲突记录只追加不删除：同字段的未裁决冲突打上人工接管标记
	for i := range out.UnresolvedConflicts {
		note := &out.UnresolvedConflicts[i]
		if note.Field == field && note.Resolution == types.ResolutionUnresolved && note.SupersededBy == "" {
			note.SupersededBy = ManualProvenanceMarker
		}
	}
	out.NeedsReview = hasOpenConflict(out.UnresolvedConflicts)

	return out, nil
}
