// Package ensemble は決定木を弱学習器とするアンサンブル回帰モデルを提供します。
//
// RandomForestRegressor はブートストラップ標本で独立に学習した木の予測を平均し、
// GradientBoostingRegressor は残差に木を逐次当てはめます。どちらも乱数の流れを
// 木ごとに RandomState から導出するため、並列度に関係なく結果は決定的です。
package ensemble
