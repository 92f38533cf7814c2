package server

import (
	"encoding/json"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// BlueprintDO 每个绑定一条记录，蓝图以JSON保存，绑定的关键字段单独建索引
type BlueprintDO struct {
	gorm.Model
	BindingId  string `gorm:"uniqueIndex;type:VARCHAR(255);not null"`
	ResourceId string `gorm:"index;type:VARCHAR(255);not null"`
	ServiceId  string `gorm:"index;type:VARCHAR(255);not null"`
	Blueprint  string `gorm:"type:TEXT;not null"`
}

func (do *BlueprintDO) fill(bp *core.Blueprint) error {
	marshal, err := json.Marshal(bp)
	if err != nil {
		return errors.Wrap(err, "序列化蓝图失败")
	}
	do.BindingId = bp.Binding.Id
	do.ResourceId = bp.Binding.ResourceId
	do.ServiceId = bp.Binding.ServiceId
	do.Blueprint = string(marshal)
	return nil
}

func (do *BlueprintDO) toBlueprint() (*core.Blueprint, error) {
	bp := &core.Blueprint{}
	if err := json.Unmarshal([]byte(do.Blueprint), bp); err != nil {
		return nil, errors.Wrapf(err, "解析绑定%s的蓝图失败", do.BindingId)
	}
	return bp, nil
}
