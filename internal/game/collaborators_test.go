package game_test

import (
	"testing"
	"time"

	"firefight/internal/config"
	"firefight/internal/game"
	"firefight/internal/game/mocks"
	"firefight/internal/game/spatial"
	"firefight/internal/protocol"

	"go.uber.org/mock/gomock"
)

func mockSpec() *game.WeaponSpec {
	return &game.WeaponSpec{
		Name: "mock_rifle",
		Ammo: game.AmmoClipConfig{
			ClipCapacity:     30,
			TimeBetweenShots: 100 * time.Millisecond,
			AmmoType:         "ammo_mock",
		},
		HitScan: game.HitScanConfig{MaxRange: 5000, Damage: 10, Leeway: 1.5, MinBoxExtent: 20},
		Anims: config.WeaponAnimDefs{
			Reload: config.MontageDef{FirstPerson: "reload_1p", ThirdPerson: "reload_3p"},
		},
	}
}

type mockRig struct {
	world *game.World
	inv   *mocks.MockInventoryCollaborator
	anim  *mocks.MockAnimationCollaborator
	net   *mocks.MockNet
	owner *game.Character
}

func newMockRig(t *testing.T, role game.Role, local bool) *mockRig {
	ctrl := gomock.NewController(t)
	r := &mockRig{
		inv:  mocks.NewMockInventoryCollaborator(ctrl),
		anim: mocks.NewMockAnimationCollaborator(ctrl),
		net:  mocks.NewMockNet(ctrl),
	}
	r.world = game.NewWorld(game.WorldOptions{
		Role:   role,
		Combat: config.DefaultCombat(),
		Net:    r.net,
	})
	r.owner = game.NewCharacter("owner", "owner", game.CharacterOptions{
		Position:  spatial.V(500, 500, 88),
		Mobility:  game.MobilityMovable,
		Local:     local,
		Inventory: r.inv,
		Animation: r.anim,
	})
	r.world.AddEntity(r.owner)
	return r
}

func TestReloadLengthComesFromMontage(t *testing.T) {
	r := newMockRig(t, game.RoleAuthority, false)
	stack := &game.Stack{Type: "ammo_mock", Quantity: 50}

	r.inv.EXPECT().FindStackByType("ammo_mock").Return(stack, true).AnyTimes()
	r.anim.EXPECT().PlayMontage("reload_3p").Return(1200 * time.Millisecond).Times(1)
	r.inv.EXPECT().ConsumeUnits(stack, 30).Return(30).Times(1)
	r.anim.EXPECT().StopMontage("reload_3p").Times(1)

	wp := r.world.SpawnWeapon(mockSpec(), r.owner.EntityID())
	wp.OnEquip()
	wp.StartReload()

	r.world.Advance(1099 * time.Millisecond)
	if wp.ClipAmmo() != 0 {
		t.Errorf("Expected no refill before 1100ms, clip %d", wp.ClipAmmo())
	}
	r.world.Advance(time.Millisecond)
	if wp.ClipAmmo() != 30 {
		t.Errorf("Expected clip 30 at 1100ms, got %d", wp.ClipAmmo())
	}
	r.world.Advance(100 * time.Millisecond)
	if wp.State() != game.StateIdle {
		t.Errorf("Expected Idle when the montage ends, got %s", wp.State())
	}
}

func TestAutoReloadNotifiesRemoteOwner(t *testing.T) {
	r := newMockRig(t, game.RoleAuthority, false)
	stack := &game.Stack{Type: "ammo_mock", Quantity: 50}

	r.inv.EXPECT().FindStackByType("ammo_mock").Return(stack, true).AnyTimes()
	r.anim.EXPECT().PlayMontage(gomock.Any()).Return(time.Duration(0)).AnyTimes()
	r.anim.EXPECT().StopMontage(gomock.Any()).AnyTimes()

	wp := r.world.SpawnWeapon(mockSpec(), r.owner.EntityID())
	wp.OnEquip()

	r.net.EXPECT().ToOwner(game.EntityID("owner"), protocol.ClientStartReload{Weapon: string(wp.ID())}).Times(1)

	// Spawned weapons start empty, so the first fire request turns into a reload.
	r.world.ApplyFromOwner("owner", protocol.ServerStartFire{Weapon: string(wp.ID())})
	if wp.State() != game.StateReloading {
		t.Errorf("Expected Reloading, got %s", wp.State())
	}
}

func TestReplicaForwardsInOrder(t *testing.T) {
	r := newMockRig(t, game.RoleReplica, true)

	r.inv.EXPECT().FindStackByType("ammo_mock").Return(nil, false).AnyTimes()
	r.anim.EXPECT().PlayMontage(gomock.Any()).Return(time.Duration(0)).AnyTimes()
	r.anim.EXPECT().StopMontage(gomock.Any()).AnyTimes()

	wp := r.world.SpawnWeapon(mockSpec(), r.owner.EntityID())
	wp.OnEquip()
	id := string(wp.ID())

	gomock.InOrder(
		r.net.EXPECT().ToAuthority(protocol.ServerStartFire{Weapon: id}),
		r.net.EXPECT().ToAuthority(protocol.ServerHandleFiring{Weapon: id}),
		r.net.EXPECT().ToAuthority(protocol.ServerStopFire{Weapon: id}),
	)

	wp.StartFire()
	wp.StopFire()
}
