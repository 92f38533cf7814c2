package server

import (
	"github.com/google/go-cmp/cmp"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/stretchr/testify/assert"
	"testing"
)

func testBlueprint(id string) *core.Blueprint {
	binding := testBinding(id, "resource-"+id)
	binding.CreationTime = 1000
	return app.DefaultDefaults().Blueprint(binding)
}

func TestDaoImpl_SaveBlueprint(t *testing.T) {
	dao := newTestDao(t)

	bp := testBlueprint("app-1")
	err := dao.SaveBlueprint(bp)
	if !assert.NoError(t, err) {
		assert.FailNow(t, "保存蓝图失败")
	}

	dest, err := dao.QueryBlueprint("app-1")
	assert.NoError(t, err)
	if diff := cmp.Diff(bp, dest); diff != "" {
		t.Errorf("读取的蓝图与保存的不一致 (-want +got):\n%s", diff)
	}

	/*
		测试更新
	*/
	bp.MaxInstances = 20
	bp.Quotient = 300
	assert.NoError(t, dao.SaveBlueprint(bp))
	dest, err = dao.QueryBlueprint("app-1")
	assert.NoError(t, err)
	assert.Equal(t, 20, dest.MaxInstances)
	assert.Equal(t, int64(300), dest.Quotient)

	var count int64
	dao.DB().Model(&BlueprintDO{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDaoImpl_DeleteBlueprint(t *testing.T) {
	dao := newTestDao(t)
	assert.NoError(t, dao.SaveBlueprint(testBlueprint("app-1")))

	assert.NoError(t, dao.DeleteBlueprint("app-1"))
	_, err := dao.QueryBlueprint("app-1")
	assert.Equal(t, server.ErrAppNotFound, err)

	assert.NoError(t, dao.DeleteBlueprint("app-1"))

	// 永久删除后可以再次保存同一个ID
	assert.NoError(t, dao.SaveBlueprint(testBlueprint("app-1")))
}

func TestDaoImpl_QueryAllBlueprints(t *testing.T) {
	dao := newTestDao(t)
	for _, id := range []string{"app-1", "app-2", "app-3"} {
		assert.NoError(t, dao.SaveBlueprint(testBlueprint(id)))
	}
	dao.DB().Create(&BlueprintDO{
		BindingId:  "broken",
		ResourceId: "broken",
		ServiceId:  "broken",
		Blueprint:  "{not json",
	})

	blueprints, err := dao.QueryAllBlueprints()
	if !assert.NoError(t, err) {
		assert.FailNow(t, "查询蓝图失败")
	}
	assert.Len(t, blueprints, 3)
	assert.Equal(t, "app-1", blueprints[0].Binding.Id)
	assert.Equal(t, "app-3", blueprints[2].Binding.Id)
}
