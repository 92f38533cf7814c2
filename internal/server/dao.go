package server

import (
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type UpdateDao interface {
	// SaveBlueprint 不存在时新建，存在时覆盖
	SaveBlueprint(bp *core.Blueprint) error
	// 永久删除该绑定的蓝图，不存在时不返回错误
	DeleteBlueprint(bindingId string) error
}

type QueryDao interface {
	QueryBlueprint(bindingId string) (*core.Blueprint, error)
	// QueryAllBlueprints 无法解析的记录会被跳过
	QueryAllBlueprints() ([]*core.Blueprint, error)
}

type Dao interface {
	DB() *gorm.DB
	UpdateDao
	QueryDao
}

type daoImpl struct {
	db     *gorm.DB
	logger *logrus.Entry
}

var _ Dao = &daoImpl{}

// MysqlDSN 数据库不存在时需要事先创建
func MysqlDSN(user, password, host, database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, database)
}

func NewDao(dsn string) (Dao, error) {
	return NewDaoWithDialector(mysql.Open(dsn))
}

func NewDaoWithDialector(dialector gorm.Dialector) (Dao, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(logrus.WithField("component", "gorm"), logger.Config{
			LogLevel: logger.Silent,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "连接数据库错误")
	}

	// 创建表格等
	err = db.AutoMigrate(&BlueprintDO{})
	if err != nil {
		return nil, errors.Wrap(err, "创建表格时出现异常")
	}

	return &daoImpl{
		db:     db,
		logger: logrus.WithField("component", "dao"),
	}, nil
}

func (d *daoImpl) SaveBlueprint(bp *core.Blueprint) error {
	dest := &BlueprintDO{}
	err := d.db.Where(&BlueprintDO{BindingId: bp.Binding.Id}).First(dest).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return errors.Wrap(err, fmt.Sprintf("查询绑定%s的蓝图出错", bp.Binding.Id))
	}

	if err = dest.fill(bp); err != nil {
		return err
	}

	err = d.db.Save(dest).Error
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("保存绑定%s的蓝图出错", bp.Binding.Id))
	}
	return nil
}

func (d *daoImpl) DeleteBlueprint(bindingId string) error {
	err := d.db.Unscoped().Where("binding_id = ?", bindingId).Delete(&BlueprintDO{}).Error
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("删除绑定%s的蓝图出错", bindingId))
	}
	return nil
}

func (d *daoImpl) QueryBlueprint(bindingId string) (*core.Blueprint, error) {
	record := &BlueprintDO{}
	err := d.db.Where(&BlueprintDO{BindingId: bindingId}).First(record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, server.ErrAppNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "查询蓝图时出错")
	}
	return record.toBlueprint()
}

func (d *daoImpl) QueryAllBlueprints() ([]*core.Blueprint, error) {
	records := make([]*BlueprintDO, 0)
	err := d.db.Order("id asc").Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(err, "获取所有蓝图出错")
	}

	result := make([]*core.Blueprint, 0, len(records))
	for _, record := range records {
		bp, err := record.toBlueprint()
		if err != nil {
			d.logger.Errorf("跳过无法解析的蓝图：%v", err)
			continue
		}
		result = append(result, bp)
	}
	return result, nil
}

func (d *daoImpl) DB() *gorm.DB {
	return d.db
}
